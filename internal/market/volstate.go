package market

import (
	"options-trader/internal/analysis/indicators"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// VolatilityClassifier buckets the current range measure by its
// percentile rank against trailing history. NORMAL before warm-up.
type VolatilityClassifier struct {
	cfg config.VolatilityConfig
}

// NewVolatilityClassifier creates a new volatility classifier.
func NewVolatilityClassifier(cfg config.VolatilityConfig) *VolatilityClassifier {
	return &VolatilityClassifier{cfg: cfg}
}

// Classify buckets the current ATR reading against its trailing history.
func (v *VolatilityClassifier) Classify(atrHistory []float64, current float64) models.VolatilityState {
	if !v.WarmedUp(atrHistory) || current <= 0 {
		return models.VolNormal
	}

	rank := indicators.PercentileRank(atrHistory, current)
	switch {
	case rank >= v.cfg.ExtremePercentile:
		return models.VolExtreme
	case rank >= v.cfg.HighPercentile:
		return models.VolHigh
	case rank <= v.cfg.LowPercentile:
		return models.VolLow
	default:
		return models.VolNormal
	}
}

// WarmedUp reports whether enough trailing history exists to rank against.
func (v *VolatilityClassifier) WarmedUp(atrHistory []float64) bool {
	return len(atrHistory) >= v.cfg.Lookback
}
