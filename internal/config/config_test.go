package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Symbol:     "NIFTY",
			Mode:       "replay",
			Capital:    100000,
			LotSize:    50,
			BaseLots:   2,
			StrikeStep: 50,
		},
		Regime: RegimeConfig{
			ADXPeriod:    14,
			ADXThreshold: 25,
			ATRPeriod:    14,
		},
		Volatility: VolatilityConfig{
			Lookback:          50,
			LowPercentile:     25,
			HighPercentile:    75,
			ExtremePercentile: 92,
		},
		Strategies: StrategiesConfig{Enabled: []string{"momentum"}},
		Aggregator: AggregatorConfig{
			LowThreshold:   3,
			CountDominance: 1,
			ScoreDominance: 2,
		},
		Risk: RiskConfig{
			MaxConcurrent:    4,
			MaxSameDirection: 2,
			MaxDailyTrades:   10,
			MaxDailyLoss:     5000,
		},
		Execution: ExecutionConfig{
			TargetDistance:    12,
			StopDistance:      6,
			MaxHoldMinutes:    45,
			ForceCloseWaitMin: 5,
		},
	}
}

func TestValidate_AcceptsSaneConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			"target at stop",
			func(c *Config) { c.Execution.TargetDistance = 6 },
			"target_distance",
		},
		{
			"target below stop",
			func(c *Config) { c.Execution.TargetDistance = 3 },
			"target_distance",
		},
		{
			"bad mode",
			func(c *Config) { c.Session.Mode = "live" },
			"session mode",
		},
		{
			"no strategies",
			func(c *Config) { c.Strategies.Enabled = nil },
			"strategy",
		},
		{
			"same direction above concurrent",
			func(c *Config) { c.Risk.MaxSameDirection = 9 },
			"max_same_direction",
		},
		{
			"unordered volatility percentiles",
			func(c *Config) { c.Volatility.HighPercentile = 95 },
			"percentiles",
		},
		{
			"negative slippage",
			func(c *Config) { c.Execution.EntrySlippage = -1 },
			"slippage",
		},
		{
			"zero daily loss",
			func(c *Config) { c.Risk.MaxDailyLoss = 0 },
			"max_daily_loss",
		},
		{
			"zero base lots",
			func(c *Config) { c.Session.BaseLots = 0 },
			"base_lots",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted a broken config")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestLoad_MissingDirYieldsDefaultsAndTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(%s) = %v", dir, err)
	}
	if cfg.Session.Symbol != "NIFTY" || cfg.Risk.MaxConcurrent != 4 {
		t.Errorf("defaults not applied: %+v", cfg.Session)
	}
	if cfg.Execution.TargetDistance <= cfg.Execution.StopDistance {
		t.Error("default exits violate the target/stop ordering")
	}
}
