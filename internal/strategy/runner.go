package strategy

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "options-trader/internal/errors"
	"options-trader/internal/logging"
	"options-trader/internal/models"
)

// Runner wraps one strategy with the guarantees the engine relies on:
// eligibility gating, one evaluation per bar, a cooldown after each
// trade, and panic containment. A misbehaving strategy costs its own
// signal for the tick, never the engine.
type Runner struct {
	strategy Strategy
	cooldown time.Duration
	logger   zerolog.Logger

	lastBar   time.Time
	lastTrade time.Time
}

// NewRunner wraps a strategy.
func NewRunner(s Strategy, cooldown time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		strategy: s,
		cooldown: cooldown,
		logger:   logging.WithStrategy(logger, s.Name()),
	}
}

// Name returns the wrapped strategy's identifier.
func (r *Runner) Name() string {
	return r.strategy.Name()
}

// Evaluate runs the strategy for one tick if it is eligible. Returns nil
// on ineligibility, repeat bars, active cooldown, or strategy failure.
func (r *Runner) Evaluate(snap models.MarketSnapshot, ctx models.MarketContext) (sig *models.StrategySignal) {
	if !ctx.WarmedUp || !snap.Valid {
		return nil
	}
	if !r.eligible(ctx) {
		return nil
	}
	if !snap.Candle.Timestamp.After(r.lastBar) {
		return nil
	}
	if !r.lastTrade.IsZero() && snap.Timestamp.Sub(r.lastTrade) < r.cooldown {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := apperrors.NewStrategyError(r.strategy.Name(),
				snap.Candle.Timestamp.Format(time.RFC3339), fmt.Errorf("panic: %v", rec))
			r.logger.Error().Err(err).Msg("Strategy evaluation failed")
			sig = nil
		}
	}()

	r.lastBar = snap.Candle.Timestamp
	sig = r.strategy.Evaluate(snap, ctx)
	if sig != nil {
		sig.Strategy = r.strategy.Name()
		sig.Timeframe = r.strategy.Timeframe()
		sig.BarTime = snap.Candle.Timestamp
		sig.GeneratedAt = snap.Timestamp
		logging.LogSignal(r.logger, sig.Strategy, string(sig.Direction), sig.Confidence, sig.Factors)
	}
	return sig
}

// NoteTrade starts the cooldown after this strategy contributed to an
// executed trade.
func (r *Runner) NoteTrade(at time.Time) {
	r.lastTrade = at
}

func (r *Runner) eligible(ctx models.MarketContext) bool {
	if regimes := r.strategy.Regimes(); len(regimes) > 0 {
		found := false
		for _, reg := range regimes {
			if reg == ctx.Regime {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if windows := r.strategy.Windows(); len(windows) > 0 {
		found := false
		for _, w := range windows {
			if w == ctx.Window {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
