// Package config provides configuration management for the decision engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all engine configuration.
type Config struct {
	Session    SessionConfig    `mapstructure:"session"`
	Regime     RegimeConfig     `mapstructure:"regime"`
	Bias       BiasConfig       `mapstructure:"bias"`
	Volatility VolatilityConfig `mapstructure:"volatility"`
	OrderFlow  OrderFlowConfig  `mapstructure:"orderflow"`
	Levels     LevelsConfig     `mapstructure:"levels"`
	Strategies StrategiesConfig `mapstructure:"strategies"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Execution  ExecutionConfig  `mapstructure:"execution"`
	Costs      CostConfig       `mapstructure:"costs"`
	Journal    JournalConfig    `mapstructure:"journal"`
}

// SessionConfig holds session-level configuration.
type SessionConfig struct {
	Symbol     string  `mapstructure:"symbol"`
	Mode       string  `mapstructure:"mode"` // "replay", "paper"
	Capital    float64 `mapstructure:"capital"`
	LotSize    int     `mapstructure:"lot_size"`
	BaseLots   int     `mapstructure:"base_lots"` // lots at multiplier 1.0
	DataFile   string  `mapstructure:"data_file"`
	StrikeStep float64 `mapstructure:"strike_step"`
}

// RegimeConfig holds regime classifier parameters.
type RegimeConfig struct {
	ADXPeriod          int     `mapstructure:"adx_period"`
	ADXThreshold       float64 `mapstructure:"adx_threshold"`
	ATRPeriod          int     `mapstructure:"atr_period"`
	VolatilePercentile float64 `mapstructure:"volatile_percentile"` // of trailing ATR history
	VolatileATRRatio   float64 `mapstructure:"volatile_atr_ratio"`  // vs trailing ATR mean
	ConfirmStructure   bool    `mapstructure:"confirm_structure"`   // require HH/LL confirmation
	HistoryLimit       int     `mapstructure:"history_limit"`
}

// BiasConfig holds bias scorer weights and bucket thresholds.
type BiasConfig struct {
	PremiumWeight    float64 `mapstructure:"premium_weight"`
	MAWeight         float64 `mapstructure:"ma_weight"`
	OscillatorWeight float64 `mapstructure:"oscillator_weight"`
	PCRWeight        float64 `mapstructure:"pcr_weight"`
	StrongThreshold  float64 `mapstructure:"strong_threshold"`
	WeakThreshold    float64 `mapstructure:"weak_threshold"`
}

// VolatilityConfig holds volatility state bucket thresholds.
type VolatilityConfig struct {
	Lookback          int     `mapstructure:"lookback"`
	LowPercentile     float64 `mapstructure:"low_percentile"`
	HighPercentile    float64 `mapstructure:"high_percentile"`
	ExtremePercentile float64 `mapstructure:"extreme_percentile"`
}

// OrderFlowConfig holds open-interest and volume analysis parameters.
type OrderFlowConfig struct {
	Lookback       int     `mapstructure:"lookback"`
	SpikeRatio     float64 `mapstructure:"spike_ratio"`
	HighRatio      float64 `mapstructure:"high_ratio"`
	DryRatio       float64 `mapstructure:"dry_ratio"`
	StrongOIChange float64 `mapstructure:"strong_oi_change"` // percent
	BullishPCR     float64 `mapstructure:"bullish_pcr"`
	BearishPCR     float64 `mapstructure:"bearish_pcr"`
}

// LevelsConfig holds liquidity level discovery parameters.
type LevelsConfig struct {
	SwingNeighbors  int     `mapstructure:"swing_neighbors"`
	TouchTolerance  float64 `mapstructure:"touch_tolerance"`
	RoundStep       float64 `mapstructure:"round_step"`
	HighOICount     int     `mapstructure:"high_oi_count"`
	OpeningRangeMin int     `mapstructure:"opening_range_minutes"`
	MaxLevels       int     `mapstructure:"max_levels"`
}

// StrategiesConfig holds the enabled strategy set and runner parameters.
type StrategiesConfig struct {
	Enabled         []string `mapstructure:"enabled"`
	CooldownMinutes int      `mapstructure:"cooldown_minutes"`
}

// AggregatorConfig holds confluence scoring and conflict resolution
// parameters. The dominance thresholds are empirically chosen constants;
// they are configurable here and never silently altered by the engine.
type AggregatorConfig struct {
	LowThreshold    float64 `mapstructure:"low_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold"`
	HighThreshold   float64 `mapstructure:"high_threshold"`
	EscalationBonus float64 `mapstructure:"escalation_bonus"` // added in EXTREME vol / LUNCH
	StrongBonus     float64 `mapstructure:"strong_bonus"`
	RegimeBonus     float64 `mapstructure:"regime_bonus"`
	BiasBonus       float64 `mapstructure:"bias_bonus"`
	FlowBonus       float64 `mapstructure:"flow_bonus"`
	VolumeBonus     float64 `mapstructure:"volume_bonus"`
	CountDominance  int     `mapstructure:"count_dominance"`
	ScoreDominance  float64 `mapstructure:"score_dominance"`
}

// RiskConfig holds risk manager limits.
type RiskConfig struct {
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
	MaxSameDirection  int     `mapstructure:"max_same_direction"`
	SameStrikeLimit   int     `mapstructure:"same_strike_limit"`
	MaxDailyTrades    int     `mapstructure:"max_daily_trades"`
	MaxDailyLoss      float64 `mapstructure:"max_daily_loss"`
	VolReductionSlope float64 `mapstructure:"vol_reduction_slope"`
	DrawdownPercent   float64 `mapstructure:"drawdown_percent"` // of capital
}

// ExecutionConfig holds position lifecycle parameters.
type ExecutionConfig struct {
	TargetDistance     float64 `mapstructure:"target_distance"`
	StopDistance       float64 `mapstructure:"stop_distance"`
	TrailTrigger       float64 `mapstructure:"trail_trigger"`
	TrailDistance      float64 `mapstructure:"trail_distance"`
	EntrySlippage      float64 `mapstructure:"entry_slippage"`
	TargetExitSlippage float64 `mapstructure:"target_exit_slippage"`
	StopExitSlippage   float64 `mapstructure:"stop_exit_slippage"`
	ForcedExitSlippage float64 `mapstructure:"forced_exit_slippage"`
	MaxHoldMinutes     int     `mapstructure:"max_hold_minutes"`
	ForceCloseWaitMin  int     `mapstructure:"force_close_wait_minutes"`
	EODExitHour        int     `mapstructure:"eod_exit_hour"`
	EODExitMinute      int     `mapstructure:"eod_exit_minute"`
}

// CostConfig holds the fixed transaction cost model.
type CostConfig struct {
	BrokeragePerLeg float64 `mapstructure:"brokerage_per_leg"`
	TaxRate         float64 `mapstructure:"tax_rate"` // proportional on notional
	SlippagePerUnit float64 `mapstructure:"slippage_per_unit"`
}

// JournalConfig holds persistence sink configuration.
type JournalConfig struct {
	Dir          string `mapstructure:"dir"`
	DBPath       string `mapstructure:"db_path"`
	WriteTicks   bool   `mapstructure:"write_ticks"`
	WriteTrades  bool   `mapstructure:"write_trades"`
	StoreEnabled bool   `mapstructure:"store_enabled"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-trader"
	}
	return filepath.Join(home, ".config", "options-trader")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file
// produces a template and returns defaults.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session.symbol", "NIFTY")
	v.SetDefault("session.mode", "replay")
	v.SetDefault("session.capital", 100000.0)
	v.SetDefault("session.lot_size", 50)
	v.SetDefault("session.base_lots", 2)
	v.SetDefault("session.strike_step", 50.0)

	v.SetDefault("regime.adx_period", 14)
	v.SetDefault("regime.adx_threshold", 25.0)
	v.SetDefault("regime.atr_period", 14)
	v.SetDefault("regime.volatile_percentile", 90.0)
	v.SetDefault("regime.volatile_atr_ratio", 1.3)
	v.SetDefault("regime.confirm_structure", true)
	v.SetDefault("regime.history_limit", 200)

	v.SetDefault("bias.premium_weight", 1.0)
	v.SetDefault("bias.ma_weight", 1.5)
	v.SetDefault("bias.oscillator_weight", 1.0)
	v.SetDefault("bias.pcr_weight", 1.0)
	v.SetDefault("bias.strong_threshold", 3.0)
	v.SetDefault("bias.weak_threshold", 1.0)

	v.SetDefault("volatility.lookback", 50)
	v.SetDefault("volatility.low_percentile", 25.0)
	v.SetDefault("volatility.high_percentile", 75.0)
	v.SetDefault("volatility.extreme_percentile", 92.0)

	v.SetDefault("orderflow.lookback", 20)
	v.SetDefault("orderflow.spike_ratio", 2.0)
	v.SetDefault("orderflow.high_ratio", 1.5)
	v.SetDefault("orderflow.dry_ratio", 0.5)
	v.SetDefault("orderflow.strong_oi_change", 5.0)
	v.SetDefault("orderflow.bullish_pcr", 1.2)
	v.SetDefault("orderflow.bearish_pcr", 0.8)

	v.SetDefault("levels.swing_neighbors", 3)
	v.SetDefault("levels.touch_tolerance", 5.0)
	v.SetDefault("levels.round_step", 100.0)
	v.SetDefault("levels.high_oi_count", 3)
	v.SetDefault("levels.opening_range_minutes", 15)
	v.SetDefault("levels.max_levels", 12)

	v.SetDefault("strategies.enabled", []string{"momentum", "vwap", "orderflow", "openingrange"})
	v.SetDefault("strategies.cooldown_minutes", 10)

	v.SetDefault("aggregator.low_threshold", 3.0)
	v.SetDefault("aggregator.medium_threshold", 5.0)
	v.SetDefault("aggregator.high_threshold", 7.0)
	v.SetDefault("aggregator.escalation_bonus", 1.5)
	v.SetDefault("aggregator.strong_bonus", 1.0)
	v.SetDefault("aggregator.regime_bonus", 1.0)
	v.SetDefault("aggregator.bias_bonus", 1.0)
	v.SetDefault("aggregator.flow_bonus", 1.0)
	v.SetDefault("aggregator.volume_bonus", 0.5)
	v.SetDefault("aggregator.count_dominance", 1)
	v.SetDefault("aggregator.score_dominance", 2.0)

	v.SetDefault("risk.max_concurrent", 4)
	v.SetDefault("risk.max_same_direction", 2)
	v.SetDefault("risk.same_strike_limit", 1)
	v.SetDefault("risk.max_daily_trades", 10)
	v.SetDefault("risk.max_daily_loss", 5000.0)
	v.SetDefault("risk.vol_reduction_slope", 0.25)
	v.SetDefault("risk.drawdown_percent", 10.0)

	v.SetDefault("execution.target_distance", 12.0)
	v.SetDefault("execution.stop_distance", 6.0)
	v.SetDefault("execution.trail_trigger", 8.0)
	v.SetDefault("execution.trail_distance", 5.0)
	v.SetDefault("execution.entry_slippage", 0.5)
	v.SetDefault("execution.target_exit_slippage", 0.25)
	v.SetDefault("execution.stop_exit_slippage", 0.75)
	v.SetDefault("execution.forced_exit_slippage", 1.0)
	v.SetDefault("execution.max_hold_minutes", 45)
	v.SetDefault("execution.force_close_wait_minutes", 5)
	v.SetDefault("execution.eod_exit_hour", 15)
	v.SetDefault("execution.eod_exit_minute", 10)

	v.SetDefault("costs.brokerage_per_leg", 20.0)
	v.SetDefault("costs.tax_rate", 0.0007)
	v.SetDefault("costs.slippage_per_unit", 0.1)

	v.SetDefault("journal.dir", filepath.Join(DefaultConfigDir(), "journal"))
	v.SetDefault("journal.db_path", filepath.Join(DefaultConfigDir(), "trader.db"))
	v.SetDefault("journal.write_ticks", true)
	v.SetDefault("journal.write_trades", true)
	v.SetDefault("journal.store_enabled", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTIONS_TRADER_MODE"); v != "" {
		cfg.Session.Mode = v
	}
	if v := os.Getenv("OPTIONS_TRADER_DATA_FILE"); v != "" {
		cfg.Session.DataFile = v
	}
	if v := os.Getenv("OPTIONS_TRADER_JOURNAL_DIR"); v != "" {
		cfg.Journal.Dir = v
	}
}

// Validate validates the configuration. Any error here is fatal: the
// engine refuses to enter the trading loop on an invalid configuration.
func (c *Config) Validate() error {
	if c.Session.Mode != "replay" && c.Session.Mode != "paper" {
		return fmt.Errorf("invalid session mode: %s (must be 'replay' or 'paper')", c.Session.Mode)
	}
	if c.Session.Capital <= 0 {
		return fmt.Errorf("session capital must be positive")
	}
	if c.Session.LotSize <= 0 {
		return fmt.Errorf("session lot_size must be positive")
	}
	if c.Session.BaseLots <= 0 {
		return fmt.Errorf("session base_lots must be positive")
	}

	if c.Regime.ADXPeriod < 2 || c.Regime.ATRPeriod < 2 {
		return fmt.Errorf("regime periods must be at least 2")
	}
	if c.Regime.ADXThreshold <= 0 {
		return fmt.Errorf("regime adx_threshold must be positive")
	}

	if c.Volatility.LowPercentile >= c.Volatility.HighPercentile ||
		c.Volatility.HighPercentile >= c.Volatility.ExtremePercentile {
		return fmt.Errorf("volatility percentiles must be strictly increasing")
	}

	if len(c.Strategies.Enabled) == 0 {
		return fmt.Errorf("at least one strategy must be enabled")
	}

	if c.Aggregator.LowThreshold <= 0 {
		return fmt.Errorf("aggregator low_threshold must be positive")
	}
	if c.Aggregator.CountDominance < 0 || c.Aggregator.ScoreDominance < 0 {
		return fmt.Errorf("aggregator dominance thresholds must be non-negative")
	}

	if c.Risk.MaxConcurrent <= 0 || c.Risk.MaxSameDirection <= 0 {
		return fmt.Errorf("risk position limits must be positive")
	}
	if c.Risk.MaxSameDirection > c.Risk.MaxConcurrent {
		return fmt.Errorf("max_same_direction cannot exceed max_concurrent")
	}
	if c.Risk.MaxDailyLoss <= 0 {
		return fmt.Errorf("max_daily_loss must be positive")
	}
	if c.Risk.MaxDailyTrades <= 0 {
		return fmt.Errorf("max_daily_trades must be positive")
	}

	// A target at or below the stop can never be hit first; this is a
	// logic error, not a tunable.
	if c.Execution.TargetDistance <= c.Execution.StopDistance {
		return fmt.Errorf("target_distance (%.2f) must exceed stop_distance (%.2f)",
			c.Execution.TargetDistance, c.Execution.StopDistance)
	}
	if c.Execution.EntrySlippage < 0 || c.Execution.StopExitSlippage < 0 ||
		c.Execution.TargetExitSlippage < 0 || c.Execution.ForcedExitSlippage < 0 {
		return fmt.Errorf("slippage values must be non-negative")
	}
	if c.Execution.MaxHoldMinutes <= 0 {
		return fmt.Errorf("max_hold_minutes must be positive")
	}
	if c.Execution.ForceCloseWaitMin <= 0 {
		return fmt.Errorf("force_close_wait_minutes must be positive")
	}

	if c.Costs.TaxRate < 0 || c.Costs.BrokeragePerLeg < 0 || c.Costs.SlippagePerUnit < 0 {
		return fmt.Errorf("cost model values must be non-negative")
	}

	return nil
}

// IsReplayMode returns true if the session replays recorded data.
func (c *Config) IsReplayMode() bool {
	return c.Session.Mode == "replay"
}
