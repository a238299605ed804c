package orderflow

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

type swingLevel struct {
	price   float64
	kind    models.LevelKind
	touches int
}

// LevelMapper discovers and ranks key price levels: swing points with
// touch persistence, max pain, high-OI strikes, round numbers, the
// session opening range and the reference moving average.
type LevelMapper struct {
	cfg config.LevelsConfig

	candles []models.Candle
	swings  []swingLevel

	sessionDay time.Time
	orHigh     float64
	orLow      float64
	orSealed   bool
}

// NewLevelMapper creates a new level mapper.
func NewLevelMapper(cfg config.LevelsConfig) *LevelMapper {
	return &LevelMapper{cfg: cfg}
}

// Observe appends one candle, updates the opening range and re-runs
// swing detection over the confirmed part of the window.
func (m *LevelMapper) Observe(candle models.Candle, sessionOpen time.Time) {
	day := sessionOpen.Truncate(24 * time.Hour)
	if !day.Equal(m.sessionDay) {
		m.sessionDay = day
		m.orHigh, m.orLow = 0, 0
		m.orSealed = false
		m.swings = nil
		m.candles = nil
	}

	m.candles = append(m.candles, candle)

	rangeEnd := sessionOpen.Add(time.Duration(m.cfg.OpeningRangeMin) * time.Minute)
	if !candle.Timestamp.After(rangeEnd) {
		if m.orHigh == 0 || candle.High > m.orHigh {
			m.orHigh = candle.High
		}
		if m.orLow == 0 || candle.Low < m.orLow {
			m.orLow = candle.Low
		}
	} else {
		m.orSealed = true
	}

	m.detectSwings()
}

// OpeningRange returns the session opening range once it is sealed.
func (m *LevelMapper) OpeningRange() (high, low float64, ok bool) {
	return m.orHigh, m.orLow, m.orSealed
}

// detectSwings scans for local extrema exceeding N neighbors on each
// side. A new swing within the touch tolerance of a known one bumps its
// persistence count instead of adding a duplicate.
func (m *LevelMapper) detectSwings() {
	n := m.cfg.SwingNeighbors
	if n <= 0 || len(m.candles) < 2*n+1 {
		return
	}

	// Only the most recently confirmed pivot can be new.
	i := len(m.candles) - n - 1
	c := m.candles[i]

	isHigh, isLow := true, true
	for j := i - n; j <= i+n; j++ {
		if j == i {
			continue
		}
		if m.candles[j].High >= c.High {
			isHigh = false
		}
		if m.candles[j].Low <= c.Low {
			isLow = false
		}
	}

	if isHigh {
		m.recordSwing(c.High, models.LevelSwingHigh)
	}
	if isLow {
		m.recordSwing(c.Low, models.LevelSwingLow)
	}
}

func (m *LevelMapper) recordSwing(price float64, kind models.LevelKind) {
	for i := range m.swings {
		if m.swings[i].kind == kind && math.Abs(m.swings[i].price-price) <= m.cfg.TouchTolerance {
			m.swings[i].touches++
			return
		}
	}
	m.swings = append(m.swings, swingLevel{price: price, kind: kind, touches: 1})
}

// MaxPain computes the strike at which aggregate option-buyer payoff is
// minimized at expiry (writer profit maximized). Returns 0 for an empty
// chain. Ties break toward the lower strike for determinism.
func MaxPain(chain map[float64]models.StrikeData) float64 {
	if len(chain) == 0 {
		return 0
	}

	strikes := make([]float64, 0, len(chain))
	for k := range chain {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)

	best := 0.0
	bestPayout := math.MaxFloat64
	for _, expiry := range strikes {
		var payout float64
		for _, k := range strikes {
			sd := chain[k]
			if expiry > k {
				payout += float64(sd.CallOI) * (expiry - k)
			}
			if k > expiry {
				payout += float64(sd.PutOI) * (k - expiry)
			}
		}
		if payout < bestPayout {
			bestPayout = payout
			best = expiry
		}
	}
	return best
}

// highOIStrikes returns the strikes carrying the most combined open
// interest, highest first.
func (m *LevelMapper) highOIStrikes(chain map[float64]models.StrikeData) []float64 {
	strikes := lo.Keys(chain)
	sort.Slice(strikes, func(i, j int) bool {
		oi := chain[strikes[i]].CallOI + chain[strikes[i]].PutOI
		oj := chain[strikes[j]].CallOI + chain[strikes[j]].PutOI
		if oi != oj {
			return oi > oj
		}
		return strikes[i] < strikes[j]
	})
	if len(strikes) > m.cfg.HighOICount {
		strikes = strikes[:m.cfg.HighOICount]
	}
	return strikes
}

// Levels builds the ranked key-level list for the current snapshot,
// nearest levels first, capped at the configured maximum.
func (m *LevelMapper) Levels(snap models.MarketSnapshot, referenceMA float64) []models.KeyLevel {
	if !snap.Valid {
		return nil
	}

	var levels []models.KeyLevel
	add := func(price float64, kind models.LevelKind, touches int) {
		if price <= 0 {
			return
		}
		levels = append(levels, models.KeyLevel{
			Price:    price,
			Kind:     kind,
			Touches:  touches,
			Distance: math.Abs(price - snap.Spot),
		})
	}

	if referenceMA > 0 {
		add(referenceMA, models.LevelMovingAverage, 0)
	}
	add(MaxPain(snap.Chain), models.LevelMaxPain, 0)
	for _, strike := range m.highOIStrikes(snap.Chain) {
		add(strike, models.LevelHighOI, 0)
	}
	for _, s := range m.swings {
		add(s.price, s.kind, s.touches)
	}
	if step := m.cfg.RoundStep; step > 0 {
		below := math.Floor(snap.Spot/step) * step
		add(below, models.LevelRoundNumber, 0)
		add(below+step, models.LevelRoundNumber, 0)
	}
	if high, low, ok := m.OpeningRange(); ok {
		add(high, models.LevelOpeningRange, 0)
		add(low, models.LevelOpeningRange, 0)
	}

	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Distance < levels[j].Distance
	})
	if m.cfg.MaxLevels > 0 && len(levels) > m.cfg.MaxLevels {
		levels = levels[:m.cfg.MaxLevels]
	}
	return levels
}

// NearestSupport returns the closest level at or below the spot price.
func NearestSupport(levels []models.KeyLevel, spot float64) (models.KeyLevel, bool) {
	supports := lo.Filter(levels, func(l models.KeyLevel, _ int) bool {
		return l.Price <= spot
	})
	return nearest(supports)
}

// NearestResistance returns the closest level above the spot price.
func NearestResistance(levels []models.KeyLevel, spot float64) (models.KeyLevel, bool) {
	resistances := lo.Filter(levels, func(l models.KeyLevel, _ int) bool {
		return l.Price > spot
	})
	return nearest(resistances)
}

func nearest(levels []models.KeyLevel) (models.KeyLevel, bool) {
	if len(levels) == 0 {
		return models.KeyLevel{}, false
	}
	best := levels[0]
	for _, l := range levels[1:] {
		if l.Distance < best.Distance {
			best = l
		}
	}
	return best, true
}
