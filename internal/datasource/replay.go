package datasource

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"options-trader/internal/analysis/indicators"
	"options-trader/internal/config"
	apperrors "options-trader/internal/errors"
	"options-trader/internal/market"
	"options-trader/internal/models"
)

// candleRow is one recorded minute bar. The timestamp is parsed with a
// couple of common layouts so exports from different tools load as-is.
type candleRow struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, market.IndiaLocation); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ReplaySource replays recorded spot candles tick by tick and
// synthesizes the derived fields and the option chain around the spot,
// the same way a paper venue simulates fills it never saw.
type ReplaySource struct {
	cfg     config.SessionConfig
	candles []models.Candle

	cursor    int
	current   models.MarketSnapshot
	cumPV     float64 // cumulative price*volume for VWAP
	cumVolume int64
	warmup    []models.Candle
}

// NewReplaySource loads the recorded candle file for the session.
func NewReplaySource(cfg config.SessionConfig) (*ReplaySource, error) {
	if cfg.DataFile == "" {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, "replay mode requires session.data_file")
	}

	f, err := os.Open(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	var rows []*candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing data file: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, "data file contains no candles")
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing data file: %w", err)
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}

	return &ReplaySource{cfg: cfg, cursor: -1, candles: candles}, nil
}

// Advance moves to the next recorded candle.
func (r *ReplaySource) Advance() bool {
	if r.cursor+1 >= len(r.candles) {
		return false
	}
	r.cursor++
	r.current = r.buildSnapshot()
	return true
}

// Snapshot returns the reading for the current candle.
func (r *ReplaySource) Snapshot() models.MarketSnapshot {
	if r.cursor < 0 {
		return models.NoDataSnapshot(time.Time{})
	}
	return r.current
}

func (r *ReplaySource) buildSnapshot() models.MarketSnapshot {
	c := r.candles[r.cursor]
	if c.Close <= 0 {
		return models.NoDataSnapshot(c.Timestamp)
	}

	r.warmup = append(r.warmup, c)
	typical := (c.High + c.Low + c.Close) / 3
	r.cumPV += typical * float64(c.Volume)
	r.cumVolume += c.Volume

	vwap := c.Close
	if r.cumVolume > 0 {
		vwap = r.cumPV / float64(r.cumVolume)
	}

	snap := models.MarketSnapshot{
		Timestamp: c.Timestamp,
		Spot:      c.Close,
		Future:    c.Close + futuresBasis(c.Timestamp, c.Close),
		VWAP:      vwap,
		Volume:    c.Volume,
		Candle:    c,
		MA:        map[int]float64{},
		Valid:     true,
	}

	closes := indicators.Closes(r.warmup)
	for _, period := range []int{5, 13, 21} {
		if series, err := indicators.SMA(closes, period); err == nil {
			snap.MA[period] = series[len(series)-1]
		}
	}
	if rsi, err := indicators.RSI(closes, 14); err == nil {
		snap.Oscillator = rsi[len(rsi)-1]
	} else {
		snap.Oscillator = 50
	}
	if atr, err := indicators.ATR(r.warmup, 14); err == nil {
		snap.RangeWidth = atr[len(atr)-1]
	}
	if di, err := indicators.ADX(r.warmup, 14); err == nil {
		snap.TrendStrength = di.ADX[len(di.ADX)-1]
	}

	snap.Chain = r.syntheticChain(snap)
	return snap
}

// futuresBasis decays a small cost-of-carry premium toward zero as the
// session runs out.
func futuresBasis(ts time.Time, spot float64) float64 {
	open := market.SessionOpen(ts)
	close := market.SessionClose(ts)
	total := close.Sub(open).Minutes()
	left := close.Sub(ts).Minutes()
	if total <= 0 || left < 0 {
		return 0
	}
	return spot * 0.0004 * (left / total)
}

// syntheticChain builds strikes around the spot with a premium model of
// intrinsic value plus decaying time value, and open interest shaped
// heaviest at round strikes near the money.
func (r *ReplaySource) syntheticChain(snap models.MarketSnapshot) map[float64]models.StrikeData {
	step := r.cfg.StrikeStep
	if step <= 0 {
		step = 50
	}
	atm := math.Round(snap.Spot/step) * step

	timeValue := snap.RangeWidth * 4
	if timeValue < step/10 {
		timeValue = step / 10
	}

	chain := make(map[float64]models.StrikeData, 11)
	for i := -5; i <= 5; i++ {
		strike := atm + float64(i)*step
		moneyness := math.Abs(strike - snap.Spot)
		tv := timeValue * step / (step + moneyness)

		sd := models.StrikeData{
			Strike:      strike,
			CallPremium: math.Max(0, snap.Spot-strike) + tv,
			PutPremium:  math.Max(0, strike-snap.Spot) + tv,
			CallIV:      12 + moneyness/step,
			PutIV:       12 + moneyness/step,
		}

		// Writers concentrate above spot on calls, below on puts.
		base := int64(100000 / (1 + moneyness/step))
		if strike >= snap.Spot {
			sd.CallOI = base * 2
			sd.PutOI = base
		} else {
			sd.CallOI = base
			sd.PutOI = base * 2
		}
		if math.Mod(strike, step*2) == 0 {
			sd.CallOI += sd.CallOI / 2
			sd.PutOI += sd.PutOI / 2
		}

		chain[strike] = sd
	}
	return chain
}

// OptionPrice returns the synthetic premium at the given strike.
func (r *ReplaySource) OptionPrice(strike float64, direction models.Direction) float64 {
	snap := r.Snapshot()
	if !snap.Valid {
		return 0
	}
	sd, ok := snap.Chain[strike]
	if !ok {
		return 0
	}
	switch direction {
	case models.BuyCall:
		return sd.CallPremium
	case models.BuyPut:
		return sd.PutPremium
	default:
		return 0
	}
}

// AffordableStrike walks out-of-the-money from ATM until the premium
// fits the per-unit budget.
func (r *ReplaySource) AffordableStrike(direction models.Direction, maxPremium float64) (float64, bool) {
	snap := r.Snapshot()
	if !snap.Valid || len(snap.Chain) == 0 {
		return 0, false
	}

	step := r.cfg.StrikeStep
	if step <= 0 {
		step = 50
	}
	strike := snap.ATMStrike()
	for i := 0; i < len(snap.Chain); i++ {
		price := r.OptionPrice(strike, direction)
		if price > 0 && price <= maxPremium {
			return strike, true
		}
		// Calls get cheaper above spot, puts below.
		if direction == models.BuyCall {
			strike += step
		} else {
			strike -= step
		}
	}
	return 0, false
}
