package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Trader Configuration

[session]
# Index symbol driving the session
symbol = "NIFTY"
# Session mode: "replay" or "paper"
mode = "replay"
# Allocated capital in INR
capital = 100000.0
# Contracts per lot
lot_size = 50
# Lots per position at size multiplier 1.0
base_lots = 2
# Strike spacing of the option chain
strike_step = 50.0
# Recorded data file for replay mode
data_file = ""

[regime]
adx_period = 14
adx_threshold = 25.0
atr_period = 14
# VOLATILE when ATR exceeds this percentile of its trailing history
volatile_percentile = 90.0
# ...or this multiple of the trailing ATR mean
volatile_atr_ratio = 1.3
# Require higher-highs / lower-lows confirmation for trending regimes
confirm_structure = true
history_limit = 200

[bias]
premium_weight = 1.0
ma_weight = 1.5
oscillator_weight = 1.0
pcr_weight = 1.0
strong_threshold = 3.0
weak_threshold = 1.0

[volatility]
lookback = 50
low_percentile = 25.0
high_percentile = 75.0
extreme_percentile = 92.0

[orderflow]
lookback = 20
spike_ratio = 2.0
high_ratio = 1.5
dry_ratio = 0.5
strong_oi_change = 5.0
bullish_pcr = 1.2
bearish_pcr = 0.8

[levels]
swing_neighbors = 3
touch_tolerance = 5.0
round_step = 100.0
high_oi_count = 3
opening_range_minutes = 15
max_levels = 12

[strategies]
enabled = ["momentum", "vwap", "orderflow", "openingrange"]
cooldown_minutes = 10

[aggregator]
# Confluence thresholds; the dominance constants are empirical and are
# deliberately left configurable.
low_threshold = 3.0
medium_threshold = 5.0
high_threshold = 7.0
escalation_bonus = 1.5
strong_bonus = 1.0
regime_bonus = 1.0
bias_bonus = 1.0
flow_bonus = 1.0
volume_bonus = 0.5
count_dominance = 1
score_dominance = 2.0

[risk]
max_concurrent = 4
max_same_direction = 2
same_strike_limit = 1
max_daily_trades = 10
max_daily_loss = 5000.0
vol_reduction_slope = 0.25
drawdown_percent = 10.0

[execution]
target_distance = 12.0
stop_distance = 6.0
trail_trigger = 8.0
trail_distance = 5.0
entry_slippage = 0.5
target_exit_slippage = 0.25
stop_exit_slippage = 0.75
forced_exit_slippage = 1.0
max_hold_minutes = 45
force_close_wait_minutes = 5
eod_exit_hour = 15
eod_exit_minute = 10

[costs]
# Two brokerage legs per round trip
brokerage_per_leg = 20.0
# Proportional tax on sell-side notional
tax_rate = 0.0007
slippage_per_unit = 0.1

[journal]
write_ticks = true
write_trades = true
store_enabled = true
`

// createTemplateConfig writes a commented config template so a first run
// leaves something editable behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
