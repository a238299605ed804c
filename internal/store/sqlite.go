// Package store persists completed trades and tick decisions to SQLite
// for post-session analysis.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "options-trader/internal/errors"
	"options-trader/internal/models"
)

// SQLiteStore implements trade and decision persistence using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and initializes) the session database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Completed trades, one row per round trip
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		signal_time DATETIME NOT NULL,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME NOT NULL,
		direction TEXT NOT NULL,
		strike REAL NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		gross_pnl REAL NOT NULL,
		costs REAL NOT NULL,
		net_pnl REAL NOT NULL,
		exit_reason TEXT NOT NULL,
		hold_seconds INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Per-tick context classification and decision
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		spot REAL NOT NULL,
		regime TEXT NOT NULL,
		bias TEXT NOT NULL,
		volatility TEXT NOT NULL,
		window TEXT NOT NULL,
		decision TEXT NOT NULL,
		direction TEXT NOT NULL,
		confluence REAL NOT NULL,
		skip_reason TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
	CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	return nil
}

// SaveTrade persists one completed trade.
func (s *SQLiteStore) SaveTrade(rec models.TradeRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO trades (signal_time, entry_time, exit_time, direction, strike,
			quantity, entry_price, exit_price, gross_pnl, costs, net_pnl,
			exit_reason, hold_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SignalTime, rec.EntryTime, rec.ExitTime, string(rec.Direction), rec.Strike,
		rec.Quantity, rec.EntryPrice, rec.ExitPrice, rec.GrossPnL, rec.Costs, rec.NetPnL,
		string(rec.ExitReason), rec.HoldDuration)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// SaveDecision persists one tick's decision row.
func (s *SQLiteStore) SaveDecision(rec models.TickRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO decisions (timestamp, spot, regime, bias, volatility, window,
			decision, direction, confluence, skip_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Spot, string(rec.Regime), string(rec.Bias),
		string(rec.Volatility), string(rec.Window), string(rec.Decision),
		string(rec.Direction), rec.Confluence, rec.SkipReason)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// DailySummary aggregates the trades closed on the given day.
type DailySummary struct {
	Date     time.Time
	Trades   int
	Wins     int
	Losses   int
	GrossPnL float64
	NetPnL   float64
}

// GetDailySummary aggregates trades for the day containing ts.
func (s *SQLiteStore) GetDailySummary(ts time.Time) (*DailySummary, error) {
	dayStart := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	row := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN net_pnl > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN net_pnl <= 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(gross_pnl), 0),
			COALESCE(SUM(net_pnl), 0)
		FROM trades WHERE exit_time >= ? AND exit_time < ?`, dayStart, dayEnd)

	summary := &DailySummary{Date: dayStart}
	if err := row.Scan(&summary.Trades, &summary.Wins, &summary.Losses,
		&summary.GrossPnL, &summary.NetPnL); err != nil {
		return nil, fmt.Errorf("failed to read daily summary: %w", err)
	}
	return summary, nil
}

// RecentTrades returns the latest n completed trades, newest first.
func (s *SQLiteStore) RecentTrades(n int) ([]models.TradeRecord, error) {
	rows, err := s.db.Query(`
		SELECT signal_time, entry_time, exit_time, direction, strike, quantity,
			entry_price, exit_price, gross_pnl, costs, net_pnl, exit_reason, hold_seconds
		FROM trades ORDER BY exit_time DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var rec models.TradeRecord
		var direction, reason string
		if err := rows.Scan(&rec.SignalTime, &rec.EntryTime, &rec.ExitTime,
			&direction, &rec.Strike, &rec.Quantity, &rec.EntryPrice, &rec.ExitPrice,
			&rec.GrossPnL, &rec.Costs, &rec.NetPnL, &reason, &rec.HoldDuration); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		rec.Direction = models.Direction(direction)
		rec.ExitReason = models.ExitReason(reason)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
