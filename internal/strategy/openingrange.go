package strategy

import (
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// OpeningRange trades the breakout of the first minutes' range: a close
// beyond the range high or low with volume behind it.
type OpeningRange struct {
	exec config.ExecutionConfig
}

// NewOpeningRange creates the opening-range breakout strategy.
func NewOpeningRange(exec config.ExecutionConfig) *OpeningRange {
	return &OpeningRange{exec: exec}
}

func (o *OpeningRange) Name() string      { return "openingrange" }
func (o *OpeningRange) Timeframe() string { return "1m" }

func (o *OpeningRange) Regimes() []models.Regime { return nil }

// Breakouts of the opening range stop meaning anything by midday.
func (o *OpeningRange) Windows() []models.TimeWindow {
	return []models.TimeWindow{models.WindowOpening, models.WindowMorning}
}

func (o *OpeningRange) Evaluate(snap models.MarketSnapshot, ctx models.MarketContext) *models.StrategySignal {
	high, low, ok := openingRange(ctx.Levels)
	if !ok {
		return nil
	}

	var direction models.Direction
	var factors []string

	switch {
	case snap.Candle.Close > high:
		direction = models.BuyCall
		factors = append(factors, "close above opening range")
		if snap.Candle.IsGreen() {
			factors = append(factors, "breakout candle green")
		}
	case snap.Candle.Close < low:
		direction = models.BuyPut
		factors = append(factors, "close below opening range")
		if !snap.Candle.IsGreen() {
			factors = append(factors, "breakout candle red")
		}
	default:
		return nil
	}

	if ctx.Flow.VolumeState.Elevated() {
		factors = append(factors, "volume behind breakout")
	}
	if ctx.Regime.IsTrending() {
		factors = append(factors, "trending regime")
	}
	if ctx.Bias.Direction() == direction {
		factors = append(factors, "bias aligned")
	}

	if len(factors) < 3 {
		return nil
	}

	return &models.StrategySignal{
		Direction:  direction,
		Strength:   strengthFromFactors(len(factors)),
		Confidence: confidenceFromFactors(len(factors)),
		Factors:    factors,
	}
}

// openingRange pulls the two opening-range levels out of the ranked
// list. Both sides must be present.
func openingRange(levels []models.KeyLevel) (high, low float64, ok bool) {
	for _, l := range levels {
		if l.Kind != models.LevelOpeningRange {
			continue
		}
		if high == 0 || l.Price > high {
			high = l.Price
		}
		if low == 0 || l.Price < low {
			low = l.Price
		}
	}
	return high, low, high > 0 && low > 0 && high != low
}
