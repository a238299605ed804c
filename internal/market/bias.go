package market

import (
	"sort"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

// BiasScorer maps a snapshot to one of the five directional bias buckets
// via a weighted sum over futures premium, moving-average alignment,
// momentum oscillator zone and the put/call open-interest ratio.
type BiasScorer struct {
	cfg config.BiasConfig
}

// NewBiasScorer creates a new bias scorer.
func NewBiasScorer(cfg config.BiasConfig) *BiasScorer {
	return &BiasScorer{cfg: cfg}
}

// Score computes the weighted bias score and its bucket. warmedUp=false
// always yields NEUTRAL with score 0: callers must not trade on
// unwarmed output.
func (b *BiasScorer) Score(snap models.MarketSnapshot, warmedUp bool) (models.Bias, float64) {
	if !warmedUp || !snap.Valid {
		return models.BiasNeutral, 0
	}

	var score float64

	// Futures trading above spot signals long positioning, below spot
	// signals shorts paying up.
	premium := snap.FuturesPremium()
	switch {
	case premium > 0:
		score += b.cfg.PremiumWeight
	case premium < 0:
		score -= b.cfg.PremiumWeight
	}

	score += b.maAlignment(snap) * b.cfg.MAWeight

	switch {
	case snap.Oscillator >= 60:
		score += b.cfg.OscillatorWeight
	case snap.Oscillator <= 40:
		score -= b.cfg.OscillatorWeight
	}

	// High PCR means heavy put writing, which is bullish positioning.
	pcr := snap.PCR()
	switch {
	case pcr > 1.1:
		score += b.cfg.PCRWeight
	case pcr > 0 && pcr < 0.9:
		score -= b.cfg.PCRWeight
	}

	return b.bucket(score), score
}

// maAlignment returns +1 for a full bullish stack (shorter MAs above
// longer, spot above VWAP), -1 for the bearish mirror, 0 otherwise.
func (b *BiasScorer) maAlignment(snap models.MarketSnapshot) float64 {
	if len(snap.MA) < 2 {
		return 0
	}

	periods := make([]int, 0, len(snap.MA))
	for p := range snap.MA {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	bullish, bearish := true, true
	for i := 0; i < len(periods)-1; i++ {
		shorter := snap.MA[periods[i]]
		longer := snap.MA[periods[i+1]]
		if shorter <= longer {
			bullish = false
		}
		if shorter >= longer {
			bearish = false
		}
	}

	if bullish && snap.Spot > snap.VWAP {
		return 1
	}
	if bearish && snap.Spot < snap.VWAP {
		return -1
	}
	return 0
}

func (b *BiasScorer) bucket(score float64) models.Bias {
	switch {
	case score >= b.cfg.StrongThreshold:
		return models.BiasStrongBullish
	case score >= b.cfg.WeakThreshold:
		return models.BiasBullish
	case score <= -b.cfg.StrongThreshold:
		return models.BiasStrongBearish
	case score <= -b.cfg.WeakThreshold:
		return models.BiasBearish
	default:
		return models.BiasNeutral
	}
}
