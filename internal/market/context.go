package market

import (
	"options-trader/internal/config"
	"options-trader/internal/models"
	"options-trader/internal/orderflow"
)

// ContextBuilder owns the classifiers and rebuilds the MarketContext
// fresh on every tick. Exactly one regime, one bias bucket and one
// volatility state come out of each Build call.
type ContextBuilder struct {
	regime *RegimeClassifier
	bias   *BiasScorer
	vol    *VolatilityClassifier
	flow   *orderflow.Analyzer
	levels *orderflow.LevelMapper
}

// NewContextBuilder creates a context builder from engine configuration.
func NewContextBuilder(cfg *config.Config) *ContextBuilder {
	return &ContextBuilder{
		regime: NewRegimeClassifier(cfg.Regime),
		bias:   NewBiasScorer(cfg.Bias),
		vol:    NewVolatilityClassifier(cfg.Volatility),
		flow:   orderflow.NewAnalyzer(cfg.OrderFlow),
		levels: orderflow.NewLevelMapper(cfg.Levels),
	}
}

// Build classifies one snapshot into a MarketContext. An invalid
// snapshot leaves the classifiers untouched and yields an unwarmed,
// neutral context so nothing downstream acts on stale data.
func (b *ContextBuilder) Build(snap models.MarketSnapshot) models.MarketContext {
	window := ClassifyWindow(snap.Timestamp)

	if !snap.Valid {
		return models.MarketContext{
			Timestamp:  snap.Timestamp,
			Regime:     models.RegimeUnknown,
			Bias:       models.BiasNeutral,
			Volatility: models.VolNormal,
			Window:     window,
			Flow:       models.OrderFlow{Buildup: models.BuildupNone, SmartMoney: models.NoTrade, VolumeState: models.VolumeNormal},
			WarmedUp:   false,
		}
	}

	regime := b.regime.Observe(snap.Candle)
	b.levels.Observe(snap.Candle, SessionOpen(snap.Timestamp))
	flow := b.flow.Observe(snap)

	warmedUp := b.regime.WarmedUp()
	bias, biasScore := b.bias.Score(snap, warmedUp)
	vol := b.vol.Classify(b.regime.ATRHistory(), b.regime.LatestATR())

	return models.MarketContext{
		Timestamp:      snap.Timestamp,
		Regime:         regime,
		RegimeDuration: b.regime.Duration(),
		Bias:           bias,
		BiasScore:      biasScore,
		Volatility:     vol,
		Window:         window,
		Flow:           flow,
		Levels:         b.levels.Levels(snap, referenceMA(snap)),
		WarmedUp:       warmedUp,
	}
}

// referenceMA picks the longest moving average in the snapshot as the
// level-mapper reference.
func referenceMA(snap models.MarketSnapshot) float64 {
	longest := 0
	for p := range snap.MA {
		if p > longest {
			longest = p
		}
	}
	if longest == 0 {
		return 0
	}
	return snap.MA[longest]
}
