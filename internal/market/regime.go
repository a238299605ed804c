package market

import (
	"errors"

	"options-trader/internal/analysis/indicators"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// RegimeClassifier classifies the market regime from a rolling candle
// window using the directional movement system (ADX) and the average
// true range. It reports UNKNOWN until its warm-up completes; callers
// must not trade on unwarmed output.
type RegimeClassifier struct {
	cfg config.RegimeConfig

	candles    []models.Candle
	atrHistory []float64

	current  models.Regime
	duration int
}

// NewRegimeClassifier creates a new regime classifier.
func NewRegimeClassifier(cfg config.RegimeConfig) *RegimeClassifier {
	return &RegimeClassifier{
		cfg:     cfg,
		current: models.RegimeUnknown,
	}
}

// Observe appends one candle to the rolling window and reclassifies.
func (r *RegimeClassifier) Observe(candle models.Candle) models.Regime {
	r.candles = append(r.candles, candle)
	if limit := r.cfg.HistoryLimit; limit > 0 && len(r.candles) > limit {
		r.candles = r.candles[len(r.candles)-limit:]
	}

	next := r.classify()
	if next == r.current {
		r.duration++
	} else {
		r.current = next
		r.duration = 1
	}
	return r.current
}

// Current returns the last classified regime.
func (r *RegimeClassifier) Current() models.Regime {
	return r.current
}

// Duration returns the number of consecutive observations the current
// regime has persisted.
func (r *RegimeClassifier) Duration() int {
	return r.duration
}

// WarmedUp reports whether enough history exists to classify.
func (r *RegimeClassifier) WarmedUp() bool {
	need := indicators.MinCandles(r.cfg.ADXPeriod)
	if atrNeed := r.cfg.ATRPeriod + 1; atrNeed > need {
		need = atrNeed
	}
	return len(r.candles) >= need
}

func (r *RegimeClassifier) classify() models.Regime {
	if !r.WarmedUp() {
		return models.RegimeUnknown
	}

	atrSeries, err := indicators.ATR(r.candles, r.cfg.ATRPeriod)
	if err != nil {
		if errors.Is(err, indicators.ErrInsufficientData) {
			return models.RegimeUnknown
		}
		return models.RegimeUnknown
	}
	atr := atrSeries[len(atrSeries)-1]

	// Trailing history excludes the current reading so a single spike
	// can exceed its own percentile.
	volatile := false
	if len(r.atrHistory) >= r.cfg.ATRPeriod {
		p90 := indicators.Percentile(r.atrHistory, r.cfg.VolatilePercentile)
		avg := indicators.Mean(r.atrHistory)
		if atr > p90 || (avg > 0 && atr >= r.cfg.VolatileATRRatio*avg) {
			volatile = true
		}
	}
	r.atrHistory = append(r.atrHistory, atr)
	if limit := r.cfg.HistoryLimit; limit > 0 && len(r.atrHistory) > limit {
		r.atrHistory = r.atrHistory[len(r.atrHistory)-limit:]
	}

	if volatile {
		return models.RegimeVolatile
	}

	di, err := indicators.ADX(r.candles, r.cfg.ADXPeriod)
	if err != nil {
		return models.RegimeUnknown
	}
	last := len(r.candles) - 1
	adx := di.ADX[last]
	plusDI := di.PlusDI[last]
	minusDI := di.MinusDI[last]

	if adx >= r.cfg.ADXThreshold {
		if plusDI > minusDI {
			if !r.cfg.ConfirmStructure || r.higherHighs() {
				return models.RegimeTrendingUp
			}
		} else if minusDI > plusDI {
			if !r.cfg.ConfirmStructure || r.lowerLows() {
				return models.RegimeTrendingDown
			}
		}
	}

	return models.RegimeRanging
}

// higherHighs checks whether the recent window shows ascending structure:
// the latest high and low both above their counterparts half a window back.
func (r *RegimeClassifier) higherHighs() bool {
	n := len(r.candles)
	span := r.cfg.ADXPeriod / 2
	if span < 2 || n < span*2 {
		return true // not enough structure to refute the trend
	}
	recentHigh, recentLow := extremes(r.candles[n-span:])
	priorHigh, priorLow := extremes(r.candles[n-span*2 : n-span])
	return recentHigh > priorHigh && recentLow > priorLow
}

// lowerLows mirrors higherHighs for descending structure.
func (r *RegimeClassifier) lowerLows() bool {
	n := len(r.candles)
	span := r.cfg.ADXPeriod / 2
	if span < 2 || n < span*2 {
		return true
	}
	recentHigh, recentLow := extremes(r.candles[n-span:])
	priorHigh, priorLow := extremes(r.candles[n-span*2 : n-span])
	return recentHigh < priorHigh && recentLow < priorLow
}

// LatestATR returns the most recent range reading, 0 before warm-up.
func (r *RegimeClassifier) LatestATR() float64 {
	if len(r.atrHistory) == 0 {
		return 0
	}
	return r.atrHistory[len(r.atrHistory)-1]
}

// ATRHistory returns the trailing ATR readings (shared with the
// volatility classifier).
func (r *RegimeClassifier) ATRHistory() []float64 {
	return r.atrHistory
}

func extremes(candles []models.Candle) (high, low float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	high, low = candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
