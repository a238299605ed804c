package datasource

import "options-trader/internal/models"

// SentinelSource is the no-op data source. It never produces a tick and
// answers every premium query with "unavailable". A session wired to it
// starts, drains and summarizes without trading.
type SentinelSource struct{}

// NewSentinelSource creates the no-op source.
func NewSentinelSource() *SentinelSource {
	return &SentinelSource{}
}

func (s *SentinelSource) Advance() bool { return false }

func (s *SentinelSource) Snapshot() models.MarketSnapshot {
	return models.MarketSnapshot{Valid: false}
}

func (s *SentinelSource) OptionPrice(strike float64, direction models.Direction) float64 {
	return 0
}

func (s *SentinelSource) AffordableStrike(direction models.Direction, maxPremium float64) (float64, bool) {
	return 0, false
}
