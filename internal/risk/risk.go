// Package risk enforces position limits, daily loss limits and
// context-driven size reduction. It is the last gate before execution.
package risk

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/config"
	"options-trader/internal/logging"
	"options-trader/internal/models"
)

// Mode is the risk manager's session mode.
type Mode string

const (
	ModeActive Mode = "ACTIVE"
	ModeHalted Mode = "HALTED"
)

// Verdict is the outcome of a trade check.
type Verdict string

const (
	VerdictAllow      Verdict = "ALLOW"
	VerdictReduceSize Verdict = "REDUCE_SIZE"
	VerdictBlock      Verdict = "BLOCK"
)

// CheckResult is the structured answer to one CheckTrade call. Blocks
// carry the reason of the first failed check.
type CheckResult struct {
	Verdict        Verdict
	Reason         string
	SizeMultiplier float64
}

type strikeKey struct {
	direction models.Direction
	strike    float64
}

// Manager owns the per-session risk state. Once the daily loss limit is
// breached the session is HALTED: every further entry is blocked until
// an explicit reset, while exits keep flowing.
type Manager struct {
	cfg     config.RiskConfig
	costs   config.CostConfig
	capital float64
	logger  zerolog.Logger

	mode        Mode
	stats       models.DailyStats
	openStrikes map[strikeKey]int
}

// NewManager creates a risk manager for one session.
func NewManager(cfg config.RiskConfig, costs config.CostConfig, capital float64, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:         cfg,
		costs:       costs,
		capital:     capital,
		logger:      logger,
		mode:        ModeActive,
		openStrikes: make(map[strikeKey]int),
	}
}

// Mode returns the current session mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// Stats returns a copy of the current daily stats.
func (m *Manager) Stats() models.DailyStats {
	return m.stats
}

// CheckTrade runs the risk checks in fixed order and returns the first
// block, or an allowance with the final size multiplier.
func (m *Manager) CheckTrade(sig models.AggregatedSignal, strike float64, vol models.VolatilityState) CheckResult {
	if m.mode == ModeHalted {
		return block("session halted: daily loss limit breached")
	}
	if sig.Decision != models.DecisionExecute {
		return block(fmt.Sprintf("decision is %s, not EXECUTE", sig.Decision))
	}
	if m.stats.OpenTotal() >= m.cfg.MaxConcurrent {
		return block(fmt.Sprintf("open positions %d at max_concurrent %d",
			m.stats.OpenTotal(), m.cfg.MaxConcurrent))
	}
	if open := m.openSameDirection(sig.Direction); open >= m.cfg.MaxSameDirection {
		return block(fmt.Sprintf("%s positions %d at max_same_direction %d",
			sig.Direction, open, m.cfg.MaxSameDirection))
	}
	if held := m.openStrikes[strikeKey{sig.Direction, strike}]; held >= m.cfg.SameStrikeLimit {
		return block(fmt.Sprintf("strike %.0f %s already held", strike, sig.Direction))
	}
	if m.stats.Trades >= m.cfg.MaxDailyTrades {
		return block(fmt.Sprintf("daily trades %d at max_daily_trades %d",
			m.stats.Trades, m.cfg.MaxDailyTrades))
	}

	mult := models.ClampMultiplier(sig.SizeMultiplier * m.reduction(vol))
	verdict := VerdictAllow
	if mult < sig.SizeMultiplier {
		verdict = VerdictReduceSize
	}
	return CheckResult{Verdict: verdict, SizeMultiplier: mult}
}

// reduction computes the multiplicative size reduction from elevated
// volatility and running drawdown. At most half the size comes off.
func (m *Manager) reduction(vol models.VolatilityState) float64 {
	r := 1.0

	var steps float64
	switch vol {
	case models.VolHigh:
		steps = 1
	case models.VolExtreme:
		steps = 2
	}
	r -= steps * m.cfg.VolReductionSlope

	if m.capital > 0 && m.stats.Drawdown > m.capital*m.cfg.DrawdownPercent/100 {
		r -= 0.25
	}

	if r < 0.5 {
		r = 0.5
	}
	return r
}

func (m *Manager) openSameDirection(dir models.Direction) int {
	if dir == models.BuyCall {
		return m.stats.OpenCalls
	}
	return m.stats.OpenPuts
}

// Register reserves a slot and marks the strike active. The reservation
// happens at decision time so a pending entry already counts against
// the concurrency limits.
func (m *Manager) Register(direction models.Direction, strike float64) {
	m.openStrikes[strikeKey{direction, strike}]++
	if direction == models.BuyCall {
		m.stats.OpenCalls++
	} else {
		m.stats.OpenPuts++
	}
	m.stats.Trades++
}

// Release rolls back a reservation that never filled: a cancelled or
// abandoned pending entry frees its slot, strike and trade count.
func (m *Manager) Release(direction models.Direction, strike float64) {
	key := strikeKey{direction, strike}
	if m.openStrikes[key] > 0 {
		m.openStrikes[key]--
	}
	if direction == models.BuyCall && m.stats.OpenCalls > 0 {
		m.stats.OpenCalls--
	} else if direction == models.BuyPut && m.stats.OpenPuts > 0 {
		m.stats.OpenPuts--
	}
	if m.stats.Trades > 0 {
		m.stats.Trades--
	}
}

// Close settles a filled exit: computes net PnL under the cost model,
// updates the daily stats and halts the session when the daily loss
// limit is breached.
func (m *Manager) Close(direction models.Direction, strike, entryPrice, exitPrice float64, quantity int) (gross, costs, net float64) {
	qty := float64(quantity)
	gross = (exitPrice - entryPrice) * qty
	costs = 2*m.costs.BrokeragePerLeg +
		m.costs.TaxRate*(entryPrice+exitPrice)*qty +
		m.costs.SlippagePerUnit*qty
	net = gross - costs

	key := strikeKey{direction, strike}
	if m.openStrikes[key] > 0 {
		m.openStrikes[key]--
	}
	if direction == models.BuyCall && m.stats.OpenCalls > 0 {
		m.stats.OpenCalls--
	} else if direction == models.BuyPut && m.stats.OpenPuts > 0 {
		m.stats.OpenPuts--
	}

	if net > 0 {
		m.stats.Wins++
	} else {
		m.stats.Losses++
	}
	m.stats.GrossPnL += gross
	m.stats.NetPnL += net
	if m.stats.NetPnL > m.stats.PeakPnL {
		m.stats.PeakPnL = m.stats.NetPnL
	}
	m.stats.Drawdown = m.stats.PeakPnL - m.stats.NetPnL

	if m.mode == ModeActive && m.stats.NetPnL <= -m.cfg.MaxDailyLoss {
		m.mode = ModeHalted
		logging.LogHalt(m.logger, m.stats.NetPnL, m.cfg.MaxDailyLoss)
	}
	return gross, costs, net
}

// ResetSession clears the daily state and re-arms the session for the
// given date. This is the only way out of HALTED.
func (m *Manager) ResetSession(date time.Time) {
	m.mode = ModeActive
	m.stats = models.DailyStats{Date: date}
	m.openStrikes = make(map[strikeKey]int)
}

func block(reason string) CheckResult {
	return CheckResult{Verdict: VerdictBlock, Reason: reason, SizeMultiplier: 0}
}
