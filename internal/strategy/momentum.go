package strategy

import (
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Momentum trades with the trend: it buys calls in an up-trend and puts
// in a down-trend when price, VWAP and the oscillator all agree.
type Momentum struct {
	exec config.ExecutionConfig
}

// NewMomentum creates the momentum strategy.
func NewMomentum(exec config.ExecutionConfig) *Momentum {
	return &Momentum{exec: exec}
}

func (m *Momentum) Name() string      { return "momentum" }
func (m *Momentum) Timeframe() string { return "1m" }

func (m *Momentum) Regimes() []models.Regime {
	return []models.Regime{models.RegimeTrendingUp, models.RegimeTrendingDown}
}

func (m *Momentum) Windows() []models.TimeWindow { return nil }

func (m *Momentum) Evaluate(snap models.MarketSnapshot, ctx models.MarketContext) *models.StrategySignal {
	direction := models.BuyCall
	if ctx.Regime == models.RegimeTrendingDown {
		direction = models.BuyPut
	}

	var factors []string

	if direction == models.BuyCall {
		if !snap.Candle.IsGreen() {
			return nil
		}
		factors = append(factors, "green candle with trend")
		if snap.Spot > snap.VWAP {
			factors = append(factors, "above VWAP")
		}
		// Don't chase an already-exhausted move.
		if snap.Oscillator >= 80 {
			return nil
		}
		if snap.Oscillator >= 55 {
			factors = append(factors, "oscillator confirming")
		}
	} else {
		if snap.Candle.IsGreen() {
			return nil
		}
		factors = append(factors, "red candle with trend")
		if snap.Spot < snap.VWAP {
			factors = append(factors, "below VWAP")
		}
		if snap.Oscillator <= 20 {
			return nil
		}
		if snap.Oscillator <= 45 {
			factors = append(factors, "oscillator confirming")
		}
	}

	if ctx.Bias.Direction() == direction {
		factors = append(factors, "bias aligned")
	}
	if ctx.RegimeDuration >= 5 {
		factors = append(factors, "established trend")
	}

	if len(factors) < 2 {
		return nil
	}

	return &models.StrategySignal{
		Direction:  direction,
		Strength:   strengthFromFactors(len(factors)),
		Confidence: confidenceFromFactors(len(factors)),
		Factors:    factors,
	}
}

func strengthFromFactors(n int) models.SignalStrength {
	switch {
	case n >= 4:
		return models.StrengthStrong
	case n == 3:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

func confidenceFromFactors(n int) int {
	c := n + 1
	if c > 5 {
		c = 5
	}
	if c < 1 {
		c = 1
	}
	return c
}
