package models

import "time"

// SignalStrength grades a strategy signal.
type SignalStrength string

const (
	StrengthStrong   SignalStrength = "STRONG"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthWeak     SignalStrength = "WEAK"
)

// StrategySignal is the output of one strategy evaluation. Immutable;
// consumed once by the aggregator.
type StrategySignal struct {
	Strategy   string
	Timeframe  string
	Direction  Direction
	Strength   SignalStrength
	Confidence int // base confidence, 1-5
	Factors    []string

	// Suggested exit distances in premium points. Zero means "use the
	// configured defaults".
	TargetDistance float64
	StopDistance   float64

	BarTime     time.Time // the bar this signal was generated for
	GeneratedAt time.Time
}

// TradeDecision is the aggregator's verdict for one tick.
type TradeDecision string

const (
	DecisionExecute TradeDecision = "EXECUTE"
	DecisionSkip    TradeDecision = "SKIP"
	DecisionWait    TradeDecision = "WAIT"
)

// AggregatedSignal is the aggregator's rendered verdict across all
// strategy signals for one tick.
type AggregatedSignal struct {
	Decision       TradeDecision
	Direction      Direction
	Confluence     float64
	Contributors   []string
	SizeMultiplier float64
	SkipReason     string
	Timestamp      time.Time

	// Exit distances resolved from the contributing signals.
	TargetDistance float64
	StopDistance   float64
}
