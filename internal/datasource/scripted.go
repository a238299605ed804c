package datasource

import (
	"time"

	"options-trader/internal/models"
)

// ScriptedSource plays back a fixed sequence of snapshots with explicit
// premium quotes. Used for deterministic tests and dry runs.
type ScriptedSource struct {
	Snapshots []models.MarketSnapshot

	// Prices maps strike -> side -> premium for the current tick. When
	// nil, premiums come from the snapshot's chain.
	Prices map[float64]map[models.Direction]float64

	cursor int
}

// NewScriptedSource creates a scripted source over the given snapshots.
func NewScriptedSource(snaps ...models.MarketSnapshot) *ScriptedSource {
	return &ScriptedSource{Snapshots: snaps, cursor: -1}
}

// Advance moves to the next scripted snapshot.
func (s *ScriptedSource) Advance() bool {
	if s.cursor+1 >= len(s.Snapshots) {
		return false
	}
	s.cursor++
	return true
}

// Snapshot returns the current scripted snapshot.
func (s *ScriptedSource) Snapshot() models.MarketSnapshot {
	if s.cursor < 0 || s.cursor >= len(s.Snapshots) {
		return models.NoDataSnapshot(lastTimestamp(s.Snapshots))
	}
	return s.Snapshots[s.cursor]
}

// SetPrice pins the premium for a strike and side until changed.
func (s *ScriptedSource) SetPrice(strike float64, direction models.Direction, price float64) {
	if s.Prices == nil {
		s.Prices = make(map[float64]map[models.Direction]float64)
	}
	if s.Prices[strike] == nil {
		s.Prices[strike] = make(map[models.Direction]float64)
	}
	s.Prices[strike][direction] = price
}

// OptionPrice returns the pinned premium, falling back to the chain.
func (s *ScriptedSource) OptionPrice(strike float64, direction models.Direction) float64 {
	if byDir, ok := s.Prices[strike]; ok {
		if p, ok := byDir[direction]; ok {
			return p
		}
	}
	snap := s.Snapshot()
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

// AffordableStrike returns the ATM strike when its premium fits the
// budget; scripted scenarios pin prices per strike explicitly.
func (s *ScriptedSource) AffordableStrike(direction models.Direction, maxPremium float64) (float64, bool) {
	snap := s.Snapshot()
	if !snap.Valid {
		return 0, false
	}
	strike := snap.ATMStrike()
	if strike == 0 {
		return 0, false
	}
	if price := s.OptionPrice(strike, direction); price > 0 && price <= maxPremium {
		return strike, true
	}
	return 0, false
}

func lastTimestamp(snaps []models.MarketSnapshot) time.Time {
	if len(snaps) > 0 {
		return snaps[len(snaps)-1].Timestamp
	}
	return time.Time{}
}
