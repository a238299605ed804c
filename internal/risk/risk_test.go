package risk

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

func riskTestConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxConcurrent:     4,
		MaxSameDirection:  2,
		SameStrikeLimit:   1,
		MaxDailyTrades:    10,
		MaxDailyLoss:      5000,
		VolReductionSlope: 0.25,
		DrawdownPercent:   10,
	}
}

func zeroCosts() config.CostConfig {
	return config.CostConfig{}
}

func newTestManager() *Manager {
	return NewManager(riskTestConfig(), zeroCosts(), 100000, zerolog.Nop())
}

func executeSignal(dir models.Direction) models.AggregatedSignal {
	return models.AggregatedSignal{
		Decision:       models.DecisionExecute,
		Direction:      dir,
		Confluence:     5,
		SizeMultiplier: 1.0,
	}
}

func TestCheckTrade_BlocksAtMaxConcurrent(t *testing.T) {
	m := newTestManager()

	// Two calls, two puts: the concurrent cap binds before either
	// direction cap does.
	m.Register(models.BuyCall, 22000)
	m.Register(models.BuyCall, 22100)
	m.Register(models.BuyPut, 22000)
	m.Register(models.BuyPut, 21900)

	res := m.CheckTrade(executeSignal(models.BuyCall), 22200, models.VolNormal)
	if res.Verdict != VerdictBlock {
		t.Fatalf("verdict = %s, want BLOCK", res.Verdict)
	}
	if !strings.Contains(res.Reason, "max_concurrent") {
		t.Errorf("reason = %q, want the concurrent cap named", res.Reason)
	}
}

func TestCheckTrade_BlocksAtMaxSameDirection(t *testing.T) {
	m := newTestManager()
	m.Register(models.BuyCall, 22000)
	m.Register(models.BuyCall, 22100)

	res := m.CheckTrade(executeSignal(models.BuyCall), 22200, models.VolNormal)
	if res.Verdict != VerdictBlock || !strings.Contains(res.Reason, "max_same_direction") {
		t.Errorf("verdict = %s (%q), want BLOCK citing max_same_direction", res.Verdict, res.Reason)
	}

	// The other side still has room.
	res = m.CheckTrade(executeSignal(models.BuyPut), 22000, models.VolNormal)
	if res.Verdict != VerdictAllow {
		t.Errorf("put verdict = %s (%q), want ALLOW", res.Verdict, res.Reason)
	}
}

func TestCheckTrade_BlocksRepeatStrike(t *testing.T) {
	m := newTestManager()
	m.Register(models.BuyCall, 22000)

	res := m.CheckTrade(executeSignal(models.BuyCall), 22000, models.VolNormal)
	if res.Verdict != VerdictBlock || !strings.Contains(res.Reason, "already held") {
		t.Errorf("verdict = %s (%q), want BLOCK on repeat strike", res.Verdict, res.Reason)
	}
}

func TestCheckTrade_BlocksNonExecuteDecision(t *testing.T) {
	m := newTestManager()
	sig := executeSignal(models.BuyCall)
	sig.Decision = models.DecisionSkip

	res := m.CheckTrade(sig, 22000, models.VolNormal)
	if res.Verdict != VerdictBlock {
		t.Errorf("verdict = %s, want BLOCK for non-EXECUTE decision", res.Verdict)
	}
}

func TestCheckTrade_ReducesSizeInHighVolatility(t *testing.T) {
	m := newTestManager()

	res := m.CheckTrade(executeSignal(models.BuyCall), 22000, models.VolHigh)
	if res.Verdict != VerdictReduceSize {
		t.Fatalf("verdict = %s, want REDUCE_SIZE", res.Verdict)
	}
	if res.SizeMultiplier != 0.75 {
		t.Errorf("multiplier = %.2f, want 0.75", res.SizeMultiplier)
	}
}

func TestHaltOnDailyLossAndReset(t *testing.T) {
	m := newTestManager()

	// One trade losing more than the daily limit.
	m.Register(models.BuyCall, 22000)
	_, _, net := m.Close(models.BuyCall, 22000, 120, 10, 50)
	if net != -5500 {
		t.Fatalf("net = %.2f, want -5500", net)
	}
	if m.Mode() != ModeHalted {
		t.Fatal("manager not halted after breaching daily loss limit")
	}

	// Every subsequent entry is blocked, regardless of merit.
	res := m.CheckTrade(executeSignal(models.BuyPut), 21900, models.VolLow)
	if res.Verdict != VerdictBlock || !strings.Contains(res.Reason, "halted") {
		t.Errorf("verdict = %s (%q), want BLOCK citing halt", res.Verdict, res.Reason)
	}

	// Only an explicit reset re-arms the session.
	m.ResetSession(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	if m.Mode() != ModeActive {
		t.Fatal("manager still halted after reset")
	}
	res = m.CheckTrade(executeSignal(models.BuyPut), 21900, models.VolNormal)
	if res.Verdict != VerdictAllow {
		t.Errorf("post-reset verdict = %s (%q), want ALLOW", res.Verdict, res.Reason)
	}
}

func TestClose_CostModelAndStats(t *testing.T) {
	costs := config.CostConfig{BrokeragePerLeg: 20, TaxRate: 0.001, SlippagePerUnit: 0.1}
	m := NewManager(riskTestConfig(), costs, 100000, zerolog.Nop())

	m.Register(models.BuyCall, 22000)
	gross, cost, net := m.Close(models.BuyCall, 22000, 100, 110, 50)

	approx := func(got, want float64) bool {
		diff := got - want
		return diff < 1e-6 && diff > -1e-6
	}
	if !approx(gross, 500) {
		t.Errorf("gross = %.2f, want 500", gross)
	}
	// 2*20 brokerage + 0.001*(100+110)*50 tax + 0.1*50 slippage = 55.5
	if !approx(cost, 55.5) {
		t.Errorf("costs = %.2f, want 55.50", cost)
	}
	if !approx(net, 444.5) {
		t.Errorf("net = %.2f, want 444.50", net)
	}

	stats := m.Stats()
	if stats.Wins != 1 || stats.Trades != 1 || stats.OpenTotal() != 0 {
		t.Errorf("stats = %+v, want one closed winning trade", stats)
	}
}

// Property: an allowed trade always carries a multiplier in [0.5, 1.5];
// a blocked trade always carries a reason and zero size.
func TestProperty_CheckResultWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	vols := []models.VolatilityState{models.VolLow, models.VolNormal, models.VolHigh, models.VolExtreme}

	properties.Property("check result well formed", prop.ForAll(
		func(openCalls, openPuts, volIdx int, mult float64) bool {
			m := newTestManager()
			for i := 0; i < openCalls; i++ {
				m.Register(models.BuyCall, 22000+float64(i)*100)
			}
			for i := 0; i < openPuts; i++ {
				m.Register(models.BuyPut, 22000-float64(i)*100)
			}

			sig := executeSignal(models.BuyCall)
			sig.SizeMultiplier = mult
			res := m.CheckTrade(sig, 23500, vols[volIdx%len(vols)])

			switch res.Verdict {
			case VerdictBlock:
				return res.Reason != "" && res.SizeMultiplier == 0
			case VerdictAllow, VerdictReduceSize:
				return res.SizeMultiplier >= 0.5 && res.SizeMultiplier <= 1.5
			default:
				return false
			}
		},
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
		gen.Float64Range(0.5, 1.5),
	))

	properties.TestingRun(t)
}
