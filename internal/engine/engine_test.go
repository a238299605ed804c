package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/config"
	"options-trader/internal/datasource"
	apperrors "options-trader/internal/errors"
	"options-trader/internal/market"
	"options-trader/internal/models"
	"options-trader/internal/risk"
)

func engineTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Session = config.SessionConfig{Symbol: "NIFTY", Mode: "replay", Capital: 100000, LotSize: 50, BaseLots: 2, StrikeStep: 50}
	cfg.Regime = config.RegimeConfig{ADXPeriod: 14, ADXThreshold: 25, ATRPeriod: 14, VolatilePercentile: 90, VolatileATRRatio: 1.3, ConfirmStructure: true, HistoryLimit: 200}
	cfg.Bias = config.BiasConfig{PremiumWeight: 1, MAWeight: 1.5, OscillatorWeight: 1, PCRWeight: 1, StrongThreshold: 3, WeakThreshold: 1}
	cfg.Volatility = config.VolatilityConfig{Lookback: 50, LowPercentile: 25, HighPercentile: 75, ExtremePercentile: 92}
	cfg.OrderFlow = config.OrderFlowConfig{Lookback: 20, SpikeRatio: 2, HighRatio: 1.5, DryRatio: 0.5, StrongOIChange: 5, BullishPCR: 1.2, BearishPCR: 0.8}
	cfg.Levels = config.LevelsConfig{SwingNeighbors: 3, TouchTolerance: 5, RoundStep: 100, HighOICount: 3, OpeningRangeMin: 15, MaxLevels: 12}
	cfg.Strategies = config.StrategiesConfig{Enabled: []string{"momentum"}, CooldownMinutes: 10}
	cfg.Aggregator = config.AggregatorConfig{LowThreshold: 3, MediumThreshold: 5, HighThreshold: 7, EscalationBonus: 1.5, StrongBonus: 1, RegimeBonus: 1, BiasBonus: 1, FlowBonus: 1, VolumeBonus: 0.5, CountDominance: 1, ScoreDominance: 2}
	cfg.Risk = config.RiskConfig{MaxConcurrent: 4, MaxSameDirection: 2, SameStrikeLimit: 1, MaxDailyTrades: 10, MaxDailyLoss: 5000, VolReductionSlope: 0.25, DrawdownPercent: 10}
	cfg.Execution = config.ExecutionConfig{TargetDistance: 12, StopDistance: 6, TrailTrigger: 8, TrailDistance: 5, MaxHoldMinutes: 45, ForceCloseWaitMin: 5, EODExitHour: 15, EODExitMinute: 10}
	cfg.Journal = config.JournalConfig{Dir: t.TempDir(), WriteTicks: true, WriteTrades: true}
	return cfg
}

// trendingSession scripts a steady morning uptrend with a full option
// chain so the momentum strategy can warm up and fire.
func trendingSession(n int) *datasource.ScriptedSource {
	base := time.Date(2026, 8, 21, 9, 46, 0, 0, market.IndiaLocation)
	snaps := make([]models.MarketSnapshot, n)
	spot := 22000.0

	for i := range snaps {
		ts := base.Add(time.Duration(i) * time.Minute)
		chain := make(map[float64]models.StrikeData)
		atm := math.Round(spot/50) * 50
		for s := atm - 100; s <= atm+100; s += 50 {
			chain[s] = models.StrikeData{Strike: s, CallPremium: 100, PutPremium: 100, CallOI: 1000000, PutOI: 1200000}
		}
		snaps[i] = models.MarketSnapshot{
			Timestamp:  ts,
			Spot:       spot,
			Future:     spot + 10,
			VWAP:       spot - 20,
			Oscillator: 62,
			MA:         map[int]float64{5: spot - 5, 13: spot - 10, 21: spot - 15},
			Volume:     100000,
			Candle:     models.Candle{Timestamp: ts, Open: spot - 2, High: spot + 2.5, Low: spot - 2.5, Close: spot},
			Chain:      chain,
			Valid:      true,
		}
		spot += 2
	}
	return datasource.NewScriptedSource(snaps...)
}

func TestNew_UnknownStrategyIsFatal(t *testing.T) {
	cfg := engineTestConfig(t)
	cfg.Strategies.Enabled = []string{"astrology"}

	_, err := New(cfg, trendingSession(5), zerolog.Nop(), Options{})
	if err == nil {
		t.Fatal("New accepted an unknown strategy code")
	}
	if !apperrors.Is(err, apperrors.ErrUnknownStrategy) {
		t.Errorf("err = %v, want ErrUnknownStrategy in the chain", err)
	}
}

func TestSession_TrendingRunTradesAndSettles(t *testing.T) {
	cfg := engineTestConfig(t)
	session, err := New(cfg, trendingSession(90), zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stats := session.Stats()
	if stats.Trades < 1 {
		t.Fatalf("trades = %d, want at least one entry over a 90-bar uptrend", stats.Trades)
	}
	if got := len(session.OpenPositions()); got != 0 {
		t.Errorf("open positions after drain = %d, want 0", got)
	}
	if stats.OpenTotal() != 0 {
		t.Errorf("risk still counts %d open positions", stats.OpenTotal())
	}
}

func TestSession_QuantityScalesWithMultiplier(t *testing.T) {
	cfg := engineTestConfig(t)
	session, err := New(cfg, trendingSession(5), zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Base 2 lots of 50: a reduced multiplier must shrink the position.
	cases := []struct {
		multiplier float64
		want       int
	}{
		{1.0, 100},
		{0.75, 50},
		{0.5, 50},
		{1.5, 150},
	}
	for _, tc := range cases {
		if got := session.quantity(tc.multiplier); got != tc.want {
			t.Errorf("quantity(%.2f) = %d, want %d", tc.multiplier, got, tc.want)
		}
	}
}

func TestSession_CancelledRunSweepsPositions(t *testing.T) {
	cfg := engineTestConfig(t)
	source := trendingSession(90)
	session, err := New(cfg, source, zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Drive ticks manually until an entry is staged or filled.
	for source.Advance() && session.Stats().OpenTotal() == 0 {
		session.ProcessTick()
	}
	if session.Stats().OpenTotal() == 0 {
		t.Fatal("no position opened over the trending session")
	}

	// A cancelled Run must sweep everything before returning.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := session.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if got := session.Stats().OpenTotal(); got != 0 {
		t.Errorf("open positions after cancelled run = %d, want 0", got)
	}
	if got := len(session.OpenPositions()); got != 0 {
		t.Errorf("lifecycle still holds %d positions after the sweep", got)
	}
}

func TestSession_HaltBlocksFurtherEntries(t *testing.T) {
	cfg := engineTestConfig(t)
	session, err := New(cfg, trendingSession(5), zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Breach the daily loss limit directly, then confirm reset re-arms.
	session.risk.Register(models.BuyCall, 22000)
	session.risk.Close(models.BuyCall, 22000, 150, 10, 50)
	if session.risk.Mode() != risk.ModeHalted {
		t.Fatal("risk manager not halted after breaching the loss limit")
	}

	session.ResetDaily(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	if session.Stats().Trades != 0 {
		t.Error("daily stats survived the reset")
	}
}