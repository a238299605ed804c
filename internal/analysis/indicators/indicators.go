// Package indicators provides the indicator math used by the market
// classifiers: moving averages, RSI, ATR and the directional movement
// system (ADX, +DI, -DI).
package indicators

import (
	"errors"
	"sort"

	"options-trader/internal/models"
)

var (
	// ErrInsufficientData is returned when there's not enough data for calculation.
	ErrInsufficientData = errors.New("insufficient data for calculation")
	// ErrInvalidPeriod is returned when the period is invalid.
	ErrInvalidPeriod = errors.New("invalid period")
)

// SMA calculates a simple moving average series. Entries before the
// warm-up index are zero.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(values))
	for i := period - 1; i < len(values); i++ {
		result[i] = mean(values[i-period+1 : i+1])
	}
	return result, nil
}

// EMA calculates an exponential moving average series, seeded with the
// SMA of the first period values.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)
	result[period-1] = mean(values[:period])
	for i := period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}
	return result, nil
}

// RSI calculates the Relative Strength Index with Wilder smoothing.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(closes) < period+1 {
		return nil, ErrInsufficientData
	}

	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := wilderSmooth(gains[1:], period)
	avgLoss := wilderSmooth(losses[1:], period)

	result := make([]float64, n)
	for i := period; i < n; i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		if l == 0 {
			result[i] = 100
			continue
		}
		rs := g / l
		result[i] = 100 - 100/(1+rs)
	}
	return result, nil
}

// ATR calculates the Average True Range with Wilder smoothing.
func ATR(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period+1 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	tr := make([]float64, n)
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < n; i++ {
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	result := make([]float64, n)
	result[period-1] = mean(tr[:period])
	for i := period; i < n; i++ {
		result[i] = (result[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return result, nil
}

// DirectionalIndex holds the ADX system output.
type DirectionalIndex struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// MinCandles returns the warm-up length ADX needs for the given period.
func MinCandles(period int) int {
	return period * 2
}

// ADX calculates the Average Directional Index with +DI and -DI.
func ADX(candles []models.Candle, period int) (*DirectionalIndex, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < MinCandles(period) {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)

	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	smoothPlusDM := wilderSmooth(plusDM, period)
	smoothMinusDM := wilderSmooth(minusDM, period)
	smoothTR := wilderSmooth(tr, period)

	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if smoothTR[i] != 0 {
			plusDI[i] = 100 * smoothPlusDM[i] / smoothTR[i]
			minusDI[i] = 100 * smoothMinusDM[i] / smoothTR[i]
		}
		if diSum := plusDI[i] + minusDI[i]; diSum != 0 {
			dx[i] = 100 * abs(plusDI[i]-minusDI[i]) / diSum
		}
	}

	adxTail := wilderSmooth(dx[period:], period)
	adx := make([]float64, n)
	for i := range adxTail {
		adx[period+i] = adxTail[i]
	}

	return &DirectionalIndex{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}, nil
}

// PercentileRank returns the percentage of history values that are less
// than or equal to the given value, in [0, 100].
func PercentileRank(history []float64, value float64) float64 {
	if len(history) == 0 {
		return 0
	}
	count := 0
	for _, v := range history {
		if v <= value {
			count++
		}
	}
	return float64(count) / float64(len(history)) * 100
}

// Percentile returns the pth percentile of the values (nearest-rank).
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(p / 100 * float64(len(sorted)))
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

// Closes extracts close prices from candles.
func Closes(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// Mean calculates the arithmetic mean of the values, 0 for empty input.
func Mean(values []float64) float64 {
	return mean(values)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// trueRange calculates the true range for a candle against the previous one.
func trueRange(current, previous models.Candle) float64 {
	highLow := current.High - current.Low
	highClose := abs(current.High - previous.Close)
	lowClose := abs(current.Low - previous.Close)
	tr := highLow
	if highClose > tr {
		tr = highClose
	}
	if lowClose > tr {
		tr = lowClose
	}
	return tr
}

// wilder smoothing (used in RSI and ADX)
func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	result := make([]float64, len(values))
	result[period-1] = mean(values[:period])
	multiplier := 1.0 / float64(period)
	for i := period; i < len(values); i++ {
		result[i] = result[i-1] + multiplier*(values[i]-result[i-1])
	}
	return result
}
