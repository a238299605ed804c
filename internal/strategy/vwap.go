package strategy

import (
	"math"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

// VWAPReversion fades stretched moves in a ranging market: when spot is
// pulled well away from VWAP with an exhausted oscillator, it bets on
// the snap back.
type VWAPReversion struct {
	exec config.ExecutionConfig

	// stretch is the minimum deviation from VWAP in range-width units.
	stretch float64
}

// NewVWAPReversion creates the VWAP mean-reversion strategy.
func NewVWAPReversion(exec config.ExecutionConfig) *VWAPReversion {
	return &VWAPReversion{exec: exec, stretch: 1.5}
}

func (v *VWAPReversion) Name() string      { return "vwap" }
func (v *VWAPReversion) Timeframe() string { return "1m" }

func (v *VWAPReversion) Regimes() []models.Regime {
	return []models.Regime{models.RegimeRanging}
}

func (v *VWAPReversion) Windows() []models.TimeWindow { return nil }

func (v *VWAPReversion) Evaluate(snap models.MarketSnapshot, ctx models.MarketContext) *models.StrategySignal {
	if snap.RangeWidth <= 0 || snap.VWAP <= 0 {
		return nil
	}

	deviation := snap.Spot - snap.VWAP
	if math.Abs(deviation) < v.stretch*snap.RangeWidth {
		return nil
	}

	var direction models.Direction
	var factors []string

	if deviation < 0 && snap.Oscillator <= 35 {
		direction = models.BuyCall
		factors = append(factors, "stretched below VWAP", "oscillator oversold")
	} else if deviation > 0 && snap.Oscillator >= 65 {
		direction = models.BuyPut
		factors = append(factors, "stretched above VWAP", "oscillator overbought")
	} else {
		return nil
	}

	// A reversal candle at the extreme is the trigger.
	if direction == models.BuyCall && snap.Candle.IsGreen() {
		factors = append(factors, "reversal candle")
	}
	if direction == models.BuyPut && !snap.Candle.IsGreen() {
		factors = append(factors, "reversal candle")
	}
	if ctx.Flow.VolumeState == models.VolumeDry {
		factors = append(factors, "dry volume at extreme")
	}

	if len(factors) < 3 {
		return nil
	}

	return &models.StrategySignal{
		Direction:  direction,
		Strength:   strengthFromFactors(len(factors)),
		Confidence: confidenceFromFactors(len(factors)),
		Factors:    factors,

		// Reversion trades aim for VWAP, not a runner.
		TargetDistance: v.exec.TargetDistance * 0.75,
	}
}
