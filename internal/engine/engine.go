// Package engine wires the pipeline together and runs the tick loop:
// snapshot, context, strategies, aggregation, risk, lifecycle, journal.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/aggregator"
	"options-trader/internal/config"
	"options-trader/internal/datasource"
	"options-trader/internal/journal"
	"options-trader/internal/lifecycle"
	"options-trader/internal/logging"
	"options-trader/internal/market"
	"options-trader/internal/models"
	"options-trader/internal/notify"
	"options-trader/internal/risk"
	"options-trader/internal/store"
	"options-trader/internal/strategy"
)

// Session is one trading session end to end. Everything it needs is
// injected at construction; the tick loop itself is single-threaded.
type Session struct {
	cfg      *config.Config
	logger   zerolog.Logger
	source   datasource.DataSource
	builder  *market.ContextBuilder
	runners  []*strategy.Runner
	agg      *aggregator.Aggregator
	risk     *risk.Manager
	life     *lifecycle.Manager
	journal  *journal.Journal
	store    *store.SQLiteStore
	notifier notify.Notifier
}

// Options carries the optional session collaborators.
type Options struct {
	Store    *store.SQLiteStore
	Notifier notify.Notifier
}

// New builds a session. An unknown strategy code is fatal here: the
// session never starts half-configured.
func New(cfg *config.Config, source datasource.DataSource, logger zerolog.Logger, opts Options) (*Session, error) {
	strategies, err := strategy.Build(cfg)
	if err != nil {
		return nil, err
	}

	cooldown := time.Duration(cfg.Strategies.CooldownMinutes) * time.Minute
	runners := make([]*strategy.Runner, 0, len(strategies))
	for _, s := range strategies {
		runners = append(runners, strategy.NewRunner(s, cooldown, logger))
	}

	riskMgr := risk.NewManager(cfg.Risk, cfg.Costs, cfg.Session.Capital, logger)
	life := lifecycle.NewManager(cfg.Execution, source, riskMgr, cfg.Session.Capital, logger)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Silent{}
	}
	life.OnEntryFill = notifier.EntryFilled

	return &Session{
		cfg:      cfg,
		logger:   logger,
		source:   source,
		builder:  market.NewContextBuilder(cfg),
		runners:  runners,
		agg:      aggregator.New(cfg.Aggregator),
		risk:     riskMgr,
		life:     life,
		journal:  journal.New(cfg.Journal, logger),
		store:    opts.Store,
		notifier: notifier,
	}, nil
}

// Run drives the session until the data source is exhausted or the
// context is cancelled. Either way every position is swept closed
// before the summary.
func (s *Session) Run(ctx context.Context) error {
	for s.source.Advance() {
		select {
		case <-ctx.Done():
			if snap := s.source.Snapshot(); snap.Valid {
				s.ForceExit(snap.Timestamp, models.ExitForced)
			}
			s.notifier.SessionSummary(s.risk.Stats())
			return ctx.Err()
		default:
		}
		s.ProcessTick()
	}

	if snap := s.source.Snapshot(); snap.Valid {
		s.ForceExit(snap.Timestamp, models.ExitForcedEOD)
	}

	s.notifier.SessionSummary(s.risk.Stats())
	return nil
}

// ProcessTick runs the full pipeline for the current snapshot.
func (s *Session) ProcessTick() {
	snap := s.source.Snapshot()
	mctx := s.builder.Build(snap)

	// Fills and exit monitoring run against this tick's prices before
	// any new decision is made.
	haltedBefore := s.risk.Mode() == risk.ModeHalted
	for _, rec := range s.life.Tick(snap.Timestamp) {
		s.settle(rec)
	}
	if !haltedBefore && s.risk.Mode() == risk.ModeHalted {
		s.notifier.Halted(s.risk.Stats().NetPnL)
		// A daily-loss halt flattens everything still on the books.
		s.ForceExit(snap.Timestamp, models.ExitForced)
	}

	signals := make([]*models.StrategySignal, 0, len(s.runners))
	for _, r := range s.runners {
		if sig := r.Evaluate(snap, mctx); sig != nil {
			signals = append(signals, sig)
		}
	}

	decision := s.agg.Aggregate(signals, mctx)
	s.notifier.Decision(decision)

	if decision.Decision == models.DecisionExecute {
		s.tryEnter(decision, mctx)
	}

	s.recordTick(snap, mctx, decision)
}

// tryEnter picks a strike, clears risk and stages the pending entry.
func (s *Session) tryEnter(decision models.AggregatedSignal, mctx models.MarketContext) {
	quantity := s.quantity(decision.SizeMultiplier)
	budget := s.cfg.Session.Capital / float64(quantity)

	strike, ok := s.source.AffordableStrike(decision.Direction, budget)
	if !ok {
		s.logger.Info().
			Str("direction", string(decision.Direction)).
			Msg("No affordable strike, skipping entry")
		return
	}
	refPrice := s.source.OptionPrice(strike, decision.Direction)

	check := s.risk.CheckTrade(decision, strike, mctx.Volatility)
	logging.LogDecision(s.logger, string(decision.Decision), string(decision.Direction),
		decision.Confluence, check.Reason)
	if check.Verdict == risk.VerdictBlock {
		return
	}

	if check.Verdict == risk.VerdictReduceSize {
		quantity = s.quantity(check.SizeMultiplier)
	}

	s.life.EnterPosition(models.PendingEntry{
		Direction:      decision.Direction,
		Strike:         strike,
		RefPrice:       refPrice,
		Quantity:       quantity,
		SizeMultiplier: check.SizeMultiplier,
		TargetDistance: decision.TargetDistance,
		StopDistance:   decision.StopDistance,
		SignalTime:     decision.Timestamp,
		Confluence:     decision.Confluence,
		Contributors:   decision.Contributors,
	})

	for _, r := range s.runners {
		for _, name := range decision.Contributors {
			if r.Name() == name {
				r.NoteTrade(decision.Timestamp)
			}
		}
	}
}

// quantity converts the size multiplier into a whole number of lots
// scaled from the configured base lot count, so a reduced multiplier
// actually shrinks the position.
func (s *Session) quantity(multiplier float64) int {
	lots := int(math.Floor(float64(s.cfg.Session.BaseLots) * multiplier))
	if lots < 1 {
		lots = 1
	}
	return lots * s.cfg.Session.LotSize
}

func (s *Session) settle(rec models.TradeRecord) {
	s.journal.RecordTrade(rec)
	if s.store != nil {
		if err := s.store.SaveTrade(rec); err != nil {
			s.logger.Warn().Err(err).Msg("Trade persistence failed")
		}
	}
	if rec.Quantity > 0 {
		s.notifier.TradeClosed(rec)
	}
}

func (s *Session) recordTick(snap models.MarketSnapshot, mctx models.MarketContext, decision models.AggregatedSignal) {
	rec := models.TickRecord{
		Timestamp:  snap.Timestamp,
		Spot:       snap.Spot,
		Regime:     mctx.Regime,
		Bias:       mctx.Bias,
		Volatility: mctx.Volatility,
		Window:     mctx.Window,
		Decision:   decision.Decision,
		Direction:  decision.Direction,
		Confluence: decision.Confluence,
		SkipReason: decision.SkipReason,
	}
	s.journal.RecordTick(rec)
	if s.store != nil {
		if err := s.store.SaveDecision(rec); err != nil {
			s.logger.Warn().Err(err).Msg("Decision persistence failed")
		}
	}
}

// ForceExit sweeps every open and pending position immediately and
// settles the resulting records. It returns the number of positions
// closed.
func (s *Session) ForceExit(now time.Time, reason models.ExitReason) int {
	records := s.life.ForceExit(now, reason)
	for _, rec := range records {
		s.settle(rec)
	}
	return len(records)
}

// ResetDaily clears the risk state for a new session day. This is the
// only way out of a halt.
func (s *Session) ResetDaily(date time.Time) {
	s.risk.ResetSession(date)
}

// Stats returns the running daily stats.
func (s *Session) Stats() models.DailyStats {
	return s.risk.Stats()
}

// OpenPositions returns the currently open positions.
func (s *Session) OpenPositions() []models.Position {
	return s.life.OpenPositions()
}
