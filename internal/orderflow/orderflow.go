// Package orderflow infers participant positioning from open interest,
// price and volume, and maps the liquidity landscape (swing points,
// max pain, high-OI strikes) into ranked key levels.
package orderflow

import (
	"options-trader/internal/config"
	"options-trader/internal/models"
)

type observation struct {
	price  float64
	callOI int64
	putOI  int64
	volume int64
}

// Analyzer tracks open interest, price and volume over a lookback window
// and classifies the positioning picture each tick.
type Analyzer struct {
	cfg     config.OrderFlowConfig
	history []observation
}

// NewAnalyzer creates a new order-flow analyzer.
func NewAnalyzer(cfg config.OrderFlowConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Observe records one snapshot and returns the order-flow summary for
// this tick. Invalid snapshots return a neutral summary without touching
// the window.
func (a *Analyzer) Observe(snap models.MarketSnapshot) models.OrderFlow {
	if !snap.Valid {
		return neutralFlow()
	}

	callOI, putOI := snap.TotalOI()
	a.history = append(a.history, observation{
		price:  snap.Spot,
		callOI: callOI,
		putOI:  putOI,
		volume: snap.Volume,
	})
	if len(a.history) > a.cfg.Lookback {
		a.history = a.history[len(a.history)-a.cfg.Lookback:]
	}

	flow := models.OrderFlow{
		PCR:         snap.PCR(),
		VolumeState: a.volumeState(),
	}

	if len(a.history) < 2 {
		flow.Buildup = models.BuildupNone
		flow.SmartMoney = models.NoTrade
		return flow
	}

	first := a.history[0]
	last := a.history[len(a.history)-1]

	priceChange := last.price - first.price
	oiStart := first.callOI + first.putOI
	oiChange := (last.callOI + last.putOI) - oiStart
	if oiStart > 0 {
		flow.OIChangePercent = float64(oiChange) / float64(oiStart) * 100
	}

	flow.Buildup = classifyBuildup(priceChange, oiChange)
	flow.SmartMoney = a.smartMoney(flow)
	return flow
}

// classifyBuildup maps the signs of (price change, OI change) onto the
// four buildup states.
func classifyBuildup(priceChange float64, oiChange int64) models.BuildupState {
	switch {
	case priceChange > 0 && oiChange > 0:
		return models.LongBuildup
	case priceChange < 0 && oiChange > 0:
		return models.ShortBuildup
	case priceChange < 0 && oiChange < 0:
		return models.LongUnwinding
	case priceChange > 0 && oiChange < 0:
		return models.ShortCovering
	default:
		return models.BuildupNone
	}
}

// smartMoney scores a direction from the OI change (contrarian to the
// side with growing interest: fresh OI is mostly written, and writers
// tend to be right), the put/call ratio and the buildup state.
func (a *Analyzer) smartMoney(flow models.OrderFlow) models.Direction {
	var score float64

	first := a.history[0]
	last := a.history[len(a.history)-1]

	if first.putOI > 0 {
		putChange := float64(last.putOI-first.putOI) / float64(first.putOI) * 100
		if putChange > a.cfg.StrongOIChange {
			score += 1 // puts being written under spot: bullish
		} else if putChange < -a.cfg.StrongOIChange {
			score -= 1
		}
	}
	if first.callOI > 0 {
		callChange := float64(last.callOI-first.callOI) / float64(first.callOI) * 100
		if callChange > a.cfg.StrongOIChange {
			score -= 1 // calls being written over spot: bearish
		} else if callChange < -a.cfg.StrongOIChange {
			score += 1
		}
	}

	if flow.PCR > a.cfg.BullishPCR {
		score += 1
	} else if flow.PCR > 0 && flow.PCR < a.cfg.BearishPCR {
		score -= 1
	}

	switch flow.Buildup {
	case models.LongBuildup, models.ShortCovering:
		score += 1
	case models.ShortBuildup, models.LongUnwinding:
		score -= 1
	}

	switch {
	case score >= 2:
		return models.BuyCall
	case score <= -2:
		return models.BuyPut
	default:
		return models.NoTrade
	}
}

// volumeState compares the latest volume to the trailing average of the
// window preceding it.
func (a *Analyzer) volumeState() models.VolumeState {
	if len(a.history) < 3 {
		return models.VolumeNormal
	}

	last := a.history[len(a.history)-1]
	var total int64
	prior := a.history[:len(a.history)-1]
	for _, o := range prior {
		total += o.volume
	}
	avg := float64(total) / float64(len(prior))
	if avg <= 0 {
		return models.VolumeNormal
	}

	ratio := float64(last.volume) / avg
	switch {
	case ratio >= a.cfg.SpikeRatio:
		return models.VolumeSpike
	case ratio >= a.cfg.HighRatio:
		return models.VolumeHigh
	case ratio <= a.cfg.DryRatio:
		return models.VolumeDry
	default:
		return models.VolumeNormal
	}
}

func neutralFlow() models.OrderFlow {
	return models.OrderFlow{
		Buildup:     models.BuildupNone,
		SmartMoney:  models.NoTrade,
		VolumeState: models.VolumeNormal,
	}
}
