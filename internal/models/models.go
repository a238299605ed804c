// Package models provides domain models for the options decision engine.
package models

import (
	"math"
	"time"
)

// Direction represents the side of an options trade.
type Direction string

const (
	BuyCall Direction = "BUY_CALL"
	BuyPut  Direction = "BUY_PUT"
	NoTrade Direction = "NONE"
)

// Opposite returns the opposing direction, or NONE for NONE.
func (d Direction) Opposite() Direction {
	switch d {
	case BuyCall:
		return BuyPut
	case BuyPut:
		return BuyCall
	default:
		return NoTrade
	}
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// IsGreen returns true if the candle closed above its open.
func (c Candle) IsGreen() bool {
	return c.Close > c.Open
}

// StrikeData represents option data for a single strike.
type StrikeData struct {
	Strike      float64
	CallPremium float64
	PutPremium  float64
	CallOI      int64
	PutOI       int64
	CallIV      float64
	PutIV       float64
}

// MarketSnapshot is a point-in-time read of the market. It is produced by
// the data source once per tick and never mutated afterwards.
type MarketSnapshot struct {
	Timestamp     time.Time
	Spot          float64
	Future        float64
	VWAP          float64
	Oscillator    float64 // momentum oscillator, 0-100
	MA            map[int]float64
	TrendStrength float64 // ADX-style
	RangeWidth    float64 // ATR-style
	Volume        int64
	Candle        Candle
	Chain         map[float64]StrikeData

	// Valid is false for the sentinel "no data" snapshot.
	Valid bool
}

// NoDataSnapshot returns the sentinel snapshot used when the data source
// cannot produce a reading. Callers must check Valid before trading on it.
func NoDataSnapshot(ts time.Time) MarketSnapshot {
	return MarketSnapshot{Timestamp: ts, Valid: false}
}

// ATMStrike returns the strike in the chain nearest to the spot price,
// or 0 if the chain is empty.
func (s MarketSnapshot) ATMStrike() float64 {
	var atm float64
	best := math.MaxFloat64
	for strike := range s.Chain {
		if d := math.Abs(strike - s.Spot); d < best {
			best = d
			atm = strike
		}
	}
	return atm
}

// TotalOI returns the summed call and put open interest across the chain.
func (s MarketSnapshot) TotalOI() (callOI, putOI int64) {
	for _, sd := range s.Chain {
		callOI += sd.CallOI
		putOI += sd.PutOI
	}
	return callOI, putOI
}

// PCR returns the put/call open-interest ratio, or 0 when there is no
// call open interest to divide by.
func (s MarketSnapshot) PCR() float64 {
	callOI, putOI := s.TotalOI()
	if callOI == 0 {
		return 0
	}
	return float64(putOI) / float64(callOI)
}

// FuturesPremium returns the futures-over-spot premium in points.
func (s MarketSnapshot) FuturesPremium() float64 {
	return s.Future - s.Spot
}
