package models

import "time"

// Regime represents the classified market regime.
type Regime string

const (
	RegimeTrendingUp   Regime = "TRENDING_UP"
	RegimeTrendingDown Regime = "TRENDING_DOWN"
	RegimeRanging      Regime = "RANGING"
	RegimeVolatile     Regime = "VOLATILE"
	RegimeUnknown      Regime = "UNKNOWN"
)

// IsTrending returns true for the two directional regimes.
func (r Regime) IsTrending() bool {
	return r == RegimeTrendingUp || r == RegimeTrendingDown
}

// Bias represents the directional bias bucket.
type Bias string

const (
	BiasStrongBullish Bias = "STRONG_BULLISH"
	BiasBullish       Bias = "BULLISH"
	BiasNeutral       Bias = "NEUTRAL"
	BiasBearish       Bias = "BEARISH"
	BiasStrongBearish Bias = "STRONG_BEARISH"
)

// Direction maps a bias bucket to the trade direction it favors.
func (b Bias) Direction() Direction {
	switch b {
	case BiasStrongBullish, BiasBullish:
		return BuyCall
	case BiasStrongBearish, BiasBearish:
		return BuyPut
	default:
		return NoTrade
	}
}

// VolatilityState represents the classified volatility bucket.
type VolatilityState string

const (
	VolLow     VolatilityState = "LOW"
	VolNormal  VolatilityState = "NORMAL"
	VolHigh    VolatilityState = "HIGH"
	VolExtreme VolatilityState = "EXTREME"
)

// TimeWindow represents the intraday session window.
type TimeWindow string

const (
	WindowPreMarket TimeWindow = "PRE_MARKET"
	WindowOpening   TimeWindow = "OPENING"
	WindowMorning   TimeWindow = "MORNING"
	WindowLunch     TimeWindow = "LUNCH"
	WindowPowerHour TimeWindow = "POWER_HOUR"
	WindowClosing   TimeWindow = "CLOSING"
	WindowClosed    TimeWindow = "CLOSED"
)

// BuildupState classifies the price/open-interest relationship.
type BuildupState string

const (
	LongBuildup   BuildupState = "LONG_BUILDUP"
	ShortBuildup  BuildupState = "SHORT_BUILDUP"
	LongUnwinding BuildupState = "LONG_UNWINDING"
	ShortCovering BuildupState = "SHORT_COVERING"
	BuildupNone   BuildupState = "NEUTRAL"
)

// VolumeState classifies current volume against its trailing average.
type VolumeState string

const (
	VolumeSpike  VolumeState = "SPIKE"
	VolumeHigh   VolumeState = "HIGH"
	VolumeNormal VolumeState = "NORMAL"
	VolumeDry    VolumeState = "DRY"
)

// Elevated returns true for volume states above normal.
func (v VolumeState) Elevated() bool {
	return v == VolumeSpike || v == VolumeHigh
}

// LevelKind identifies the origin of a key price level.
type LevelKind string

const (
	LevelMovingAverage LevelKind = "MOVING_AVERAGE"
	LevelMaxPain       LevelKind = "MAX_PAIN"
	LevelHighOI        LevelKind = "HIGH_OI"
	LevelSwingHigh     LevelKind = "SWING_HIGH"
	LevelSwingLow      LevelKind = "SWING_LOW"
	LevelRoundNumber   LevelKind = "ROUND_NUMBER"
	LevelOpeningRange  LevelKind = "OPENING_RANGE"
)

// KeyLevel is a ranked price level discovered by the liquidity mapper.
type KeyLevel struct {
	Price    float64
	Kind     LevelKind
	Touches  int
	Distance float64 // absolute distance from spot at build time
}

// OrderFlow summarizes open-interest driven positioning for one tick.
type OrderFlow struct {
	PCR             float64
	OIChangePercent float64
	Buildup         BuildupState
	SmartMoney      Direction
	VolumeState     VolumeState
}

// MarketContext is the derived, classified view of one MarketSnapshot.
// It is rebuilt fresh every tick; exactly one regime, bias and volatility
// state are assigned per tick.
type MarketContext struct {
	Timestamp      time.Time
	Regime         Regime
	RegimeDuration int // ticks the current regime has persisted
	Bias           Bias
	BiasScore      float64
	Volatility     VolatilityState
	Window         TimeWindow
	Flow           OrderFlow
	Levels         []KeyLevel
	WarmedUp       bool
}

// IsTradeable reports whether new entries are allowed under this context.
// Trading halts near the close and in extreme volatility.
func (c MarketContext) IsTradeable() bool {
	if c.Window == WindowClosed || c.Window == WindowClosing {
		return false
	}
	return c.Volatility != VolExtreme
}

// SizeMultiplier returns the context-driven position size multiplier.
// It is a pure function of the context: calling it twice on the same
// unmutated context returns the same value.
func (c MarketContext) SizeMultiplier() float64 {
	mult := 1.0
	switch c.Volatility {
	case VolHigh:
		mult *= 0.7
	case VolLow:
		mult *= 1.2
	}
	switch c.Window {
	case WindowLunch:
		mult *= 0.8
	case WindowPowerHour:
		if c.Regime.IsTrending() {
			mult *= 1.2
		}
	}
	return clampMultiplier(mult)
}

// clampMultiplier bounds a size multiplier to [0.5, 1.5].
func clampMultiplier(m float64) float64 {
	if m < 0.5 {
		return 0.5
	}
	if m > 1.5 {
		return 1.5
	}
	return m
}

// ClampMultiplier bounds a size multiplier to the engine-wide [0.5, 1.5]
// range. Shared by the aggregator and risk manager.
func ClampMultiplier(m float64) float64 {
	return clampMultiplier(m)
}
