// Package datasource feeds the engine with market snapshots and option
// premium reads. The engine never talks to raw data directly.
package datasource

import (
	"options-trader/internal/config"
	apperrors "options-trader/internal/errors"
	"options-trader/internal/models"
)

// DataSource produces one MarketSnapshot per tick and answers premium
// queries against the current tick.
//
// Snapshot never returns an error: a source that cannot produce a
// reading returns the sentinel no-data snapshot and the caller checks
// Valid. OptionPrice returns 0 when the premium is unavailable; 0 is
// never a tradeable price.
type DataSource interface {
	// Advance moves to the next tick. It returns false when the source
	// is exhausted.
	Advance() bool

	// Snapshot returns the current tick's reading.
	Snapshot() models.MarketSnapshot

	// OptionPrice returns the current premium for the given strike and
	// side, or 0 when unavailable.
	OptionPrice(strike float64, direction models.Direction) float64

	// AffordableStrike walks outward from the at-the-money strike on the
	// given side and returns the nearest strike whose premium fits the
	// per-unit budget.
	AffordableStrike(direction models.Direction, maxPremium float64) (strike float64, ok bool)
}

// New selects the data source for the configured session mode. Replay
// sessions require a candle file. A paper session replays one when
// configured; without a file it gets the sentinel source and produces
// no ticks.
func New(cfg config.SessionConfig) (DataSource, error) {
	switch cfg.Mode {
	case "replay":
		return NewReplaySource(cfg)
	case "paper":
		if cfg.DataFile != "" {
			return NewReplaySource(cfg)
		}
		return NewSentinelSource(), nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "session mode %q", cfg.Mode)
	}
}
