package aggregator

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

func aggTestConfig() config.AggregatorConfig {
	return config.AggregatorConfig{
		LowThreshold:    3.0,
		MediumThreshold: 5.0,
		HighThreshold:   7.0,
		EscalationBonus: 1.5,
		StrongBonus:     1.0,
		RegimeBonus:     1.0,
		BiasBonus:       1.0,
		FlowBonus:       1.0,
		VolumeBonus:     0.5,
		CountDominance:  1,
		ScoreDominance:  2.0,
	}
}

func tradeableContext() models.MarketContext {
	return models.MarketContext{
		Timestamp:  time.Date(2026, 8, 21, 10, 30, 0, 0, time.UTC),
		Regime:     models.RegimeTrendingUp,
		Bias:       models.BiasBullish,
		Volatility: models.VolNormal,
		Window:     models.WindowMorning,
		Flow:       models.OrderFlow{SmartMoney: models.BuyCall, VolumeState: models.VolumeNormal},
		WarmedUp:   true,
	}
}

func sig(name string, dir models.Direction, strength models.SignalStrength) *models.StrategySignal {
	return &models.StrategySignal{Strategy: name, Direction: dir, Strength: strength, Confidence: 3}
}

func TestAggregate_ConflictResolvedByScoreDominance(t *testing.T) {
	a := New(aggTestConfig())

	signals := []*models.StrategySignal{
		sig("momentum", models.BuyCall, models.StrengthStrong),
		sig("vwap", models.BuyCall, models.StrengthModerate),
		sig("orderflow", models.BuyPut, models.StrengthWeak),
	}
	// Count diff 1 does not clear dominance 1; summed confidence 6 vs 3
	// clears the dominance band. Confluence: 2 + strong 1 + regime 1 +
	// bias 1 + flow 1 = 6.
	out := a.Aggregate(signals, tradeableContext())

	if out.Decision != models.DecisionExecute {
		t.Fatalf("decision = %s (%s), want EXECUTE", out.Decision, out.SkipReason)
	}
	if out.Direction != models.BuyCall {
		t.Errorf("direction = %s, want BUY_CALL", out.Direction)
	}
	if out.Confluence != 6 {
		t.Errorf("confluence = %.1f, want 6.0", out.Confluence)
	}
	if len(out.Contributors) != 2 {
		t.Errorf("contributors = %v, want the two call strategies", out.Contributors)
	}
	// Medium tier at 6, context multiplier 1.0.
	if out.SizeMultiplier != 1.0 {
		t.Errorf("size multiplier = %.2f, want 1.00", out.SizeMultiplier)
	}
}

func TestAggregate_ConfidenceDominanceInNeutralContext(t *testing.T) {
	a := New(aggTestConfig())
	ctx := tradeableContext()
	ctx.Regime = models.RegimeRanging
	ctx.Bias = models.BiasNeutral
	ctx.Flow.SmartMoney = models.NoTrade

	// Two calls at confidence 4 and 3 against one put at confidence 2:
	// counts 2 vs 1 stay inside the dominance band, but summed
	// confidence 7 vs 2 clears it with no help from the context.
	signals := []*models.StrategySignal{
		{Strategy: "momentum", Direction: models.BuyCall, Strength: models.StrengthStrong, Confidence: 4},
		{Strategy: "vwap", Direction: models.BuyCall, Strength: models.StrengthModerate, Confidence: 3},
		{Strategy: "orderflow", Direction: models.BuyPut, Strength: models.StrengthWeak, Confidence: 2},
	}
	out := a.Aggregate(signals, ctx)

	if out.Decision != models.DecisionExecute {
		t.Fatalf("decision = %s (%s), want EXECUTE", out.Decision, out.SkipReason)
	}
	if out.Direction != models.BuyCall {
		t.Errorf("direction = %s, want BUY_CALL", out.Direction)
	}
}

func TestAggregate_WaitWhenNoSignals(t *testing.T) {
	a := New(aggTestConfig())
	out := a.Aggregate(nil, tradeableContext())
	if out.Decision != models.DecisionWait || out.Direction != models.NoTrade {
		t.Errorf("decision = %s/%s, want WAIT/NONE", out.Decision, out.Direction)
	}
}

func TestAggregate_StandoffIsSkipped(t *testing.T) {
	a := New(aggTestConfig())
	ctx := tradeableContext()
	ctx.Regime = models.RegimeRanging
	ctx.Bias = models.BiasNeutral
	ctx.Flow.SmartMoney = models.NoTrade

	signals := []*models.StrategySignal{
		sig("momentum", models.BuyCall, models.StrengthModerate),
		sig("vwap", models.BuyPut, models.StrengthModerate),
	}
	out := a.Aggregate(signals, ctx)
	if out.Decision != models.DecisionSkip {
		t.Fatalf("decision = %s, want SKIP", out.Decision)
	}
	if out.SkipReason == "" {
		t.Error("skip must carry a reason")
	}
}

func TestAggregate_BiasBreaksTies(t *testing.T) {
	a := New(aggTestConfig())
	ctx := tradeableContext()
	ctx.Regime = models.RegimeRanging
	ctx.Bias = models.BiasBearish
	ctx.Flow.SmartMoney = models.NoTrade

	signals := []*models.StrategySignal{
		sig("momentum", models.BuyCall, models.StrengthModerate),
		sig("vwap", models.BuyPut, models.StrengthModerate),
		sig("orderflow", models.BuyPut, models.StrengthModerate),
		sig("openingrange", models.BuyCall, models.StrengthModerate),
	}
	// Counts 2v2 and summed confidence 6v6: inside both dominance bands,
	// the bearish bias decides.
	out := a.Aggregate(signals, ctx)
	if out.Decision != models.DecisionExecute || out.Direction != models.BuyPut {
		t.Errorf("decision = %s/%s, want EXECUTE/BUY_PUT", out.Decision, out.Direction)
	}
}

func TestAggregate_ThresholdEscalatesInLunch(t *testing.T) {
	a := New(aggTestConfig())
	ctx := tradeableContext()
	ctx.Regime = models.RegimeRanging
	ctx.Bias = models.BiasNeutral
	ctx.Flow.SmartMoney = models.NoTrade
	ctx.Window = models.WindowLunch

	// Score 3.0 clears the base threshold but not lunch's 4.5.
	signals := []*models.StrategySignal{
		sig("momentum", models.BuyCall, models.StrengthStrong),
		sig("vwap", models.BuyCall, models.StrengthModerate),
	}
	out := a.Aggregate(signals, ctx)
	if out.Decision != models.DecisionSkip {
		t.Errorf("decision = %s, want SKIP below escalated threshold", out.Decision)
	}
}

func TestAggregate_NotTradeableContextSkips(t *testing.T) {
	a := New(aggTestConfig())
	ctx := tradeableContext()
	ctx.Window = models.WindowClosing

	signals := []*models.StrategySignal{
		sig("momentum", models.BuyCall, models.StrengthStrong),
		sig("vwap", models.BuyCall, models.StrengthStrong),
	}
	out := a.Aggregate(signals, ctx)
	if out.Decision != models.DecisionSkip {
		t.Errorf("decision = %s, want SKIP in closing window", out.Decision)
	}
}

// Property: the decision is independent of signal order, and an EXECUTE
// always carries a direction, a positive confluence and a bounded size.
func TestProperty_AggregationOrderIndependentAndBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	a := New(aggTestConfig())

	strengths := []models.SignalStrength{models.StrengthStrong, models.StrengthModerate, models.StrengthWeak}
	names := []string{"momentum", "vwap", "orderflow", "openingrange"}

	properties.Property("order independent, bounded execute", prop.ForAll(
		func(callCount, putCount, strengthSeed int) bool {
			var signals []*models.StrategySignal
			for i := 0; i < callCount; i++ {
				signals = append(signals, sig(names[i%len(names)], models.BuyCall, strengths[(strengthSeed+i)%3]))
			}
			for i := 0; i < putCount; i++ {
				signals = append(signals, sig(names[(i+2)%len(names)], models.BuyPut, strengths[(strengthSeed+i+1)%3]))
			}

			ctx := tradeableContext()
			forward := a.Aggregate(signals, ctx)

			reversed := make([]*models.StrategySignal, len(signals))
			for i, s := range signals {
				reversed[len(signals)-1-i] = s
			}
			backward := a.Aggregate(reversed, ctx)

			if forward.Decision != backward.Decision ||
				forward.Direction != backward.Direction ||
				forward.Confluence != backward.Confluence {
				return false
			}
			if forward.Decision == models.DecisionExecute {
				return forward.Direction != models.NoTrade &&
					forward.Confluence > 0 &&
					forward.SizeMultiplier >= 0.5 && forward.SizeMultiplier <= 1.5
			}
			return true
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
