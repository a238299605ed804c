// Package market builds the classified MarketContext from raw snapshots:
// time window, regime, bias, volatility state, order flow and key levels.
package market

import (
	"time"

	"options-trader/internal/models"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// ClassifyWindow maps a timestamp to its intraday session window.
func ClassifyWindow(ts time.Time) models.TimeWindow {
	t := ts.In(IndiaLocation)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return models.WindowClosed
	}

	minutes := t.Hour()*60 + t.Minute()

	switch {
	case minutes >= 540 && minutes < 555: // 9:00 - 9:15
		return models.WindowPreMarket
	case minutes >= 555 && minutes < 585: // 9:15 - 9:45
		return models.WindowOpening
	case minutes >= 585 && minutes < 720: // 9:45 - 12:00
		return models.WindowMorning
	case minutes >= 720 && minutes < 810: // 12:00 - 13:30
		return models.WindowLunch
	case minutes >= 810 && minutes < 885: // 13:30 - 14:45
		return models.WindowPowerHour
	case minutes >= 885 && minutes < 930: // 14:45 - 15:30
		return models.WindowClosing
	default:
		return models.WindowClosed
	}
}

// SessionOpen returns the market open time on the day of ts.
func SessionOpen(ts time.Time) time.Time {
	t := ts.In(IndiaLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 9, 15, 0, 0, IndiaLocation)
}

// SessionClose returns the market close time on the day of ts.
func SessionClose(ts time.Time) time.Time {
	t := ts.In(IndiaLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 30, 0, 0, IndiaLocation)
}
