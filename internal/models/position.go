package models

import "time"

// ExitReason identifies why a position was (or will be) closed.
type ExitReason string

const (
	ExitStopLoss      ExitReason = "STOP_LOSS"
	ExitTarget        ExitReason = "TARGET"
	ExitTrailingStop  ExitReason = "TRAILING_STOP"
	ExitMaxHoldTime   ExitReason = "MAX_HOLD_TIME"
	ExitForcedEOD     ExitReason = "FORCED_EOD"
	ExitForced        ExitReason = "FORCE_EXIT"
	ExitStalePrice    ExitReason = "STALE_PRICE_FORCE_CLOSE"
	ExitNotAffordable ExitReason = "NOT_AFFORDABLE_AT_ACTUAL_PRICE"
)

// Position is an open options trade. Created on a filled entry, mutated
// every tick while open (peak tracking, trailing arm), destroyed on a
// filled exit.
type Position struct {
	Direction  Direction
	Strike     float64
	EntryPrice float64
	EntryTime  time.Time
	Quantity   int

	// PeakPrice is the highest premium seen since entry.
	PeakPrice  float64
	TrailArmed bool

	// SignalTime is when the decision was made, distinct from EntryTime.
	SignalTime time.Time

	TargetDistance float64
	StopDistance   float64
}

// UnrealizedGain returns the per-unit gain at the given premium.
func (p *Position) UnrealizedGain(price float64) float64 {
	return price - p.EntryPrice
}

// PendingEntry bridges "decision made on bar N" to "fill on bar N+1".
// Created on a risk-approved EXECUTE, consumed on the next tick.
type PendingEntry struct {
	Direction      Direction
	Strike         float64
	RefPrice       float64 // premium at decision time
	Quantity       int
	SizeMultiplier float64
	TargetDistance float64
	StopDistance   float64
	SignalTime     time.Time
	Confluence     float64
	Contributors   []string

	// WaitingSince tracks how long the fill has been stalled on missing
	// price data.
	WaitingSince time.Time
}

// PendingExit holds an exit intent until the deferred fill happens.
type PendingExit struct {
	Reason       ExitReason
	TriggerPrice float64
	TriggeredAt  time.Time
	WaitingSince time.Time
}

// DailyStats is the per-session state mutated by the risk manager on
// every fill and read by every risk check. Reset at session start.
type DailyStats struct {
	Date      time.Time
	Trades    int
	Wins      int
	Losses    int
	GrossPnL  float64
	NetPnL    float64
	PeakPnL   float64
	Drawdown  float64
	OpenCalls int
	OpenPuts  int
}

// OpenTotal returns the number of currently open positions.
func (d DailyStats) OpenTotal() int {
	return d.OpenCalls + d.OpenPuts
}

// WinRate returns wins/trades as a percentage, 0 when no trades.
func (d DailyStats) WinRate() float64 {
	if d.Trades == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Trades) * 100
}

// TradeRecord is one row per completed trade, consumed by the journal.
type TradeRecord struct {
	SignalTime   time.Time  `csv:"signal_time"`
	EntryTime    time.Time  `csv:"entry_time"`
	ExitTime     time.Time  `csv:"exit_time"`
	Direction    Direction  `csv:"direction"`
	Strike       float64    `csv:"strike"`
	Quantity     int        `csv:"quantity"`
	EntryPrice   float64    `csv:"entry_price"`
	ExitPrice    float64    `csv:"exit_price"`
	GrossPnL     float64    `csv:"gross_pnl"`
	Costs        float64    `csv:"costs"`
	NetPnL       float64    `csv:"net_pnl"`
	ExitReason   ExitReason `csv:"exit_reason"`
	HoldDuration int64      `csv:"hold_seconds"`
}

// TickRecord is one row per tick with the context classification and the
// decision outcome, consumed by the journal.
type TickRecord struct {
	Timestamp  time.Time       `csv:"timestamp"`
	Spot       float64         `csv:"spot"`
	Regime     Regime          `csv:"regime"`
	Bias       Bias            `csv:"bias"`
	Volatility VolatilityState `csv:"volatility"`
	Window     TimeWindow      `csv:"window"`
	Decision   TradeDecision   `csv:"decision"`
	Direction  Direction       `csv:"direction"`
	Confluence float64         `csv:"confluence"`
	SkipReason string          `csv:"skip_reason"`
}
