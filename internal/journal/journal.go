// Package journal appends per-trade and per-tick records to CSV files.
// Journaling is best effort: a failed write is logged and never stops
// the trading loop.
package journal

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Journal owns the session's CSV sinks.
type Journal struct {
	cfg    config.JournalConfig
	logger zerolog.Logger
}

// New creates a journal rooted at the configured directory.
func New(cfg config.JournalConfig, logger zerolog.Logger) *Journal {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		logger.Warn().Err(err).Str("dir", cfg.Dir).Msg("Journal directory unavailable")
	}
	return &Journal{cfg: cfg, logger: logger}
}

// RecordTrade appends one completed trade to trades.csv.
func (j *Journal) RecordTrade(rec models.TradeRecord) {
	if !j.cfg.WriteTrades {
		return
	}
	if err := appendCSV(filepath.Join(j.cfg.Dir, "trades.csv"), []models.TradeRecord{rec}); err != nil {
		j.logger.Warn().Err(err).Msg("Trade journal write failed")
	}
}

// RecordTick appends one tick classification and decision to ticks.csv.
func (j *Journal) RecordTick(rec models.TickRecord) {
	if !j.cfg.WriteTicks {
		return
	}
	if err := appendCSV(filepath.Join(j.cfg.Dir, "ticks.csv"), []models.TickRecord{rec}); err != nil {
		j.logger.Warn().Err(err).Msg("Tick journal write failed")
	}
}

// appendCSV appends rows to the file, writing the header only when the
// file is new.
func appendCSV[T any](path string, rows []T) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return gocsv.MarshalFile(&rows, f)
	}
	return gocsv.MarshalWithoutHeaders(&rows, f)
}
