// Package lifecycle drives each position through its explicit state
// machine: NONE -> PENDING_ENTRY -> OPEN -> EXIT_TRIGGERED -> NONE.
// Fills are deferred one tick: a decision made on bar N fills at bar
// N+1 prices. States are never skipped.
package lifecycle

import (
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/config"
	"options-trader/internal/datasource"
	"options-trader/internal/logging"
	"options-trader/internal/market"
	"options-trader/internal/models"
	"options-trader/internal/risk"
)

// State is a position slot's lifecycle state.
type State string

const (
	StateNone          State = "NONE"
	StatePendingEntry  State = "PENDING_ENTRY"
	StateOpen          State = "OPEN"
	StateExitTriggered State = "EXIT_TRIGGERED"
)

// slot tracks one position through its lifecycle.
type slot struct {
	state      State
	entry      models.PendingEntry
	position   models.Position
	exit       models.PendingExit
	staleSince time.Time
}

// Manager owns every position slot and advances them on each tick.
type Manager struct {
	cfg     config.ExecutionConfig
	source  datasource.DataSource
	risk    *risk.Manager
	capital float64
	logger  zerolog.Logger

	slots []*slot

	// OnEntryFill, when set, is invoked after each filled entry.
	OnEntryFill func(models.Position)
}

// NewManager creates a lifecycle manager.
func NewManager(cfg config.ExecutionConfig, source datasource.DataSource, riskMgr *risk.Manager, capital float64, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		source:  source,
		risk:    riskMgr,
		capital: capital,
		logger:  logger,
	}
}

// EnterPosition opens a new slot in PENDING_ENTRY and reserves the risk
// slot immediately, so the pending entry counts against the concurrency
// limits before it fills. The fill happens on the next tick at
// then-current prices.
func (m *Manager) EnterPosition(entry models.PendingEntry) {
	m.slots = append(m.slots, &slot{state: StatePendingEntry, entry: entry})
	m.risk.Register(entry.Direction, entry.Strike)
	m.logger.Info().
		Str("direction", string(entry.Direction)).
		Float64("strike", entry.Strike).
		Float64("ref_price", entry.RefPrice).
		Int("quantity", entry.Quantity).
		Msg("Entry pending")
}

// OpenPositions returns copies of the currently open positions.
func (m *Manager) OpenPositions() []models.Position {
	var out []models.Position
	for _, s := range m.slots {
		if s.state == StateOpen || s.state == StateExitTriggered {
			out = append(out, s.position)
		}
	}
	return out
}

// PendingCount returns the number of slots waiting on an entry fill.
func (m *Manager) PendingCount() int {
	n := 0
	for _, s := range m.slots {
		if s.state == StatePendingEntry {
			n++
		}
	}
	return n
}

// Tick advances every slot one step against current prices and returns
// the trade records completed this tick. Slots are processed in
// creation order.
func (m *Manager) Tick(now time.Time) []models.TradeRecord {
	var records []models.TradeRecord
	remaining := m.slots[:0]

	for _, s := range m.slots {
		var rec *models.TradeRecord
		switch s.state {
		case StatePendingEntry:
			rec = m.fillEntry(s, now)
		case StateOpen:
			m.monitor(s, now)
		case StateExitTriggered:
			rec = m.fillExit(s, now)
		}
		if rec != nil {
			records = append(records, *rec)
		}
		if s.state != StateNone {
			remaining = append(remaining, s)
		}
	}

	m.slots = remaining
	return records
}

// fillEntry attempts the deferred entry fill. Missing prices stall the
// fill for a bounded wait, then the entry is abandoned.
func (m *Manager) fillEntry(s *slot, now time.Time) *models.TradeRecord {
	// Never fill on the decision tick itself.
	if !now.After(s.entry.SignalTime) {
		return nil
	}

	price := m.source.OptionPrice(s.entry.Strike, s.entry.Direction)
	if price <= 0 {
		if s.staleSince.IsZero() {
			s.staleSince = now
		}
		if now.Sub(s.staleSince) >= m.waitLimit() {
			m.logger.Warn().
				Float64("strike", s.entry.Strike).
				Msg("Entry abandoned, no price within wait limit")
			s.state = StateNone
			m.risk.Release(s.entry.Direction, s.entry.Strike)
		}
		return nil
	}
	s.staleSince = time.Time{}

	fillPrice := price + m.cfg.EntrySlippage

	// The decision was priced on the previous bar; the actual fill must
	// still fit the capital.
	if fillPrice*float64(s.entry.Quantity) > m.capital {
		s.state = StateNone
		m.risk.Release(s.entry.Direction, s.entry.Strike)
		rec := abandonedRecord(s.entry, fillPrice, now)
		m.logger.Warn().
			Float64("strike", s.entry.Strike).
			Float64("fill_price", fillPrice).
			Msg("Entry abandoned, not affordable at actual price")
		return &rec
	}

	target := s.entry.TargetDistance
	if target <= 0 {
		target = m.cfg.TargetDistance
	}
	stop := s.entry.StopDistance
	if stop <= 0 {
		stop = m.cfg.StopDistance
	}

	s.position = models.Position{
		Direction:      s.entry.Direction,
		Strike:         s.entry.Strike,
		EntryPrice:     fillPrice,
		EntryTime:      now,
		Quantity:       s.entry.Quantity,
		PeakPrice:      fillPrice,
		SignalTime:     s.entry.SignalTime,
		TargetDistance: target,
		StopDistance:   stop,
	}
	s.state = StateOpen
	logging.LogFill(m.logger, "entry", string(s.position.Direction), s.position.Strike, fillPrice, s.position.Quantity)
	if m.OnEntryFill != nil {
		m.OnEntryFill(s.position)
	}
	return nil
}

// monitor watches an open position and triggers an exit when any rule
// fires. Rules are checked in priority order: stop, target, trailing
// stop, max hold, end of day.
func (m *Manager) monitor(s *slot, now time.Time) {
	price := m.source.OptionPrice(s.position.Strike, s.position.Direction)
	if price <= 0 {
		if s.staleSince.IsZero() {
			s.staleSince = now
		}
		if now.Sub(s.staleSince) >= m.waitLimit() {
			m.trigger(s, now, models.ExitStalePrice, m.worstCasePrice(s))
		}
		return
	}
	s.staleSince = time.Time{}

	if price > s.position.PeakPrice {
		s.position.PeakPrice = price
	}
	gain := s.position.UnrealizedGain(price)
	if !s.position.TrailArmed && gain >= m.cfg.TrailTrigger {
		s.position.TrailArmed = true
		m.logger.Debug().
			Float64("strike", s.position.Strike).
			Float64("price", price).
			Msg("Trailing stop armed")
	}

	switch {
	case gain <= -s.position.StopDistance:
		m.trigger(s, now, models.ExitStopLoss, price)
	case gain >= s.position.TargetDistance:
		m.trigger(s, now, models.ExitTarget, price)
	case s.position.TrailArmed && price <= s.position.PeakPrice-m.cfg.TrailDistance:
		m.trigger(s, now, models.ExitTrailingStop, price)
	case now.Sub(s.position.EntryTime) >= time.Duration(m.cfg.MaxHoldMinutes)*time.Minute:
		m.trigger(s, now, models.ExitMaxHoldTime, price)
	case m.pastEOD(now):
		m.trigger(s, now, models.ExitForcedEOD, price)
	}
}

// fillExit completes a triggered exit at next-tick prices minus the
// reason's slippage. A stalled exit is force-closed at the worst case
// after the bounded wait.
func (m *Manager) fillExit(s *slot, now time.Time) *models.TradeRecord {
	if !now.After(s.exit.TriggeredAt) {
		return nil
	}

	reason := s.exit.Reason
	price := m.source.OptionPrice(s.position.Strike, s.position.Direction)
	if price <= 0 {
		if s.staleSince.IsZero() {
			s.staleSince = now
		}
		if now.Sub(s.staleSince) < m.waitLimit() {
			return nil
		}
		reason = models.ExitStalePrice
		price = m.worstCasePrice(s)
	}
	s.staleSince = time.Time{}

	rec := m.settleExit(s, now, reason, price)
	return &rec
}

// settleExit fills an exit at the given price, closes the position with
// the risk manager and resets the slot.
func (m *Manager) settleExit(s *slot, now time.Time, reason models.ExitReason, price float64) models.TradeRecord {
	fillPrice := price - m.exitSlippage(reason)
	if fillPrice < 0 {
		fillPrice = 0
	}

	gross, costs, net := m.risk.Close(s.position.Direction, s.position.Strike,
		s.position.EntryPrice, fillPrice, s.position.Quantity)
	logging.LogFill(m.logger, "exit", string(s.position.Direction), s.position.Strike, fillPrice, s.position.Quantity)

	rec := models.TradeRecord{
		SignalTime:   s.position.SignalTime,
		EntryTime:    s.position.EntryTime,
		ExitTime:     now,
		Direction:    s.position.Direction,
		Strike:       s.position.Strike,
		Quantity:     s.position.Quantity,
		EntryPrice:   s.position.EntryPrice,
		ExitPrice:    fillPrice,
		GrossPnL:     gross,
		Costs:        costs,
		NetPnL:       net,
		ExitReason:   reason,
		HoldDuration: int64(now.Sub(s.position.EntryTime).Seconds()),
	}
	s.state = StateNone
	return rec
}

// ForceExit sweeps every slot immediately: pending entries are
// cancelled and released, open and already-triggered positions settle
// right now at the best available price (worst case when the feed is
// dark). Nothing is deferred to a later tick.
func (m *Manager) ForceExit(now time.Time, reason models.ExitReason) []models.TradeRecord {
	var records []models.TradeRecord
	remaining := m.slots[:0]

	for _, s := range m.slots {
		switch s.state {
		case StatePendingEntry:
			s.state = StateNone
			m.risk.Release(s.entry.Direction, s.entry.Strike)
		case StateOpen, StateExitTriggered:
			// A slot already in EXIT_TRIGGERED keeps its recorded reason.
			exitReason := reason
			if s.state == StateExitTriggered {
				exitReason = s.exit.Reason
			}
			price := m.source.OptionPrice(s.position.Strike, s.position.Direction)
			if price <= 0 {
				price = m.worstCasePrice(s)
			}
			records = append(records, m.settleExit(s, now, exitReason, price))
		}
		if s.state != StateNone {
			remaining = append(remaining, s)
		}
	}

	m.slots = remaining
	return records
}

func (m *Manager) trigger(s *slot, now time.Time, reason models.ExitReason, price float64) {
	s.state = StateExitTriggered
	s.exit = models.PendingExit{
		Reason:       reason,
		TriggerPrice: price,
		TriggeredAt:  now,
	}
	s.staleSince = time.Time{}
	m.logger.Info().
		Str("reason", string(reason)).
		Float64("strike", s.position.Strike).
		Float64("trigger_price", price).
		Msg("Exit triggered")
}

func (m *Manager) exitSlippage(reason models.ExitReason) float64 {
	switch reason {
	case models.ExitTarget:
		return m.cfg.TargetExitSlippage
	case models.ExitStopLoss, models.ExitTrailingStop:
		return m.cfg.StopExitSlippage
	default:
		return m.cfg.ForcedExitSlippage
	}
}

// worstCasePrice is the settle price when no market price exists: the
// full configured stop below entry.
func (m *Manager) worstCasePrice(s *slot) float64 {
	p := s.position.EntryPrice - s.position.StopDistance
	if p < 0 {
		p = 0
	}
	return p
}

func (m *Manager) waitLimit() time.Duration {
	return time.Duration(m.cfg.ForceCloseWaitMin) * time.Minute
}

func (m *Manager) pastEOD(now time.Time) bool {
	t := now.In(market.IndiaLocation)
	eod := time.Date(t.Year(), t.Month(), t.Day(),
		m.cfg.EODExitHour, m.cfg.EODExitMinute, 0, 0, market.IndiaLocation)
	return !t.Before(eod)
}

func abandonedRecord(entry models.PendingEntry, fillPrice float64, now time.Time) models.TradeRecord {
	return models.TradeRecord{
		SignalTime: entry.SignalTime,
		EntryTime:  now,
		ExitTime:   now,
		Direction:  entry.Direction,
		Strike:     entry.Strike,
		Quantity:   0,
		EntryPrice: fillPrice,
		ExitPrice:  fillPrice,
		ExitReason: models.ExitNotAffordable,
	}
}
