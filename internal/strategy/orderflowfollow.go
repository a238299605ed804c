package strategy

import (
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// OrderFlowFollow trades in the direction the open-interest picture
// points: it follows the smart-money inference when the buildup state
// and volume agree with it.
type OrderFlowFollow struct {
	exec config.ExecutionConfig
}

// NewOrderFlowFollow creates the order-flow strategy.
func NewOrderFlowFollow(exec config.ExecutionConfig) *OrderFlowFollow {
	return &OrderFlowFollow{exec: exec}
}

func (o *OrderFlowFollow) Name() string      { return "orderflow" }
func (o *OrderFlowFollow) Timeframe() string { return "1m" }

func (o *OrderFlowFollow) Regimes() []models.Regime {
	return []models.Regime{
		models.RegimeTrendingUp,
		models.RegimeTrendingDown,
		models.RegimeRanging,
	}
}

func (o *OrderFlowFollow) Windows() []models.TimeWindow { return nil }

func (o *OrderFlowFollow) Evaluate(snap models.MarketSnapshot, ctx models.MarketContext) *models.StrategySignal {
	direction := ctx.Flow.SmartMoney
	if direction == models.NoTrade {
		return nil
	}

	factors := []string{"smart money positioning"}

	switch ctx.Flow.Buildup {
	case models.LongBuildup, models.ShortCovering:
		if direction == models.BuyCall {
			factors = append(factors, "bullish buildup")
		}
	case models.ShortBuildup, models.LongUnwinding:
		if direction == models.BuyPut {
			factors = append(factors, "bearish buildup")
		}
	}

	if ctx.Flow.VolumeState.Elevated() {
		factors = append(factors, "elevated volume")
	}
	if ctx.Bias.Direction() == direction {
		factors = append(factors, "bias aligned")
	}
	if direction == models.BuyCall && snap.Spot > snap.VWAP {
		factors = append(factors, "above VWAP")
	}
	if direction == models.BuyPut && snap.Spot < snap.VWAP {
		factors = append(factors, "below VWAP")
	}

	if len(factors) < 3 {
		return nil
	}

	sig := &models.StrategySignal{
		Direction:  direction,
		Strength:   strengthFromFactors(len(factors)),
		Confidence: confidenceFromFactors(len(factors)),
		Factors:    factors,
	}

	// Positioning moves tend to run; give the strong ones room.
	if sig.Strength == models.StrengthStrong {
		sig.TargetDistance = o.exec.TargetDistance * 1.25
	}
	return sig
}
