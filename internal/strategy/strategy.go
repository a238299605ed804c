// Package strategy defines the signal contract, the sealed strategy set
// and the runner that shields the engine from individual strategies.
package strategy

import (
	"sort"

	"github.com/samber/lo"

	"options-trader/internal/config"
	apperrors "options-trader/internal/errors"
	"options-trader/internal/models"
)

// Strategy evaluates one tick and either emits a signal or nil. A
// strategy declares the regimes and windows it is eligible in; the
// runner never calls Evaluate outside them.
type Strategy interface {
	// Name returns the strategy's stable identifier.
	Name() string

	// Timeframe returns the bar timeframe the strategy reasons on.
	Timeframe() string

	// Regimes returns the regimes the strategy trades in. Empty means all.
	Regimes() []models.Regime

	// Windows returns the session windows the strategy trades in. Empty
	// means all tradeable windows.
	Windows() []models.TimeWindow

	// Evaluate inspects the snapshot and context and returns a signal, or
	// nil when there is nothing to say. Must not mutate its inputs.
	Evaluate(snap models.MarketSnapshot, ctx models.MarketContext) *models.StrategySignal
}

// The strategy set is sealed: config selects from these codes and an
// unknown code is a fatal startup error, not a silent skip.
var builders = map[string]func(cfg *config.Config) Strategy{
	"momentum":     func(cfg *config.Config) Strategy { return NewMomentum(cfg.Execution) },
	"vwap":         func(cfg *config.Config) Strategy { return NewVWAPReversion(cfg.Execution) },
	"orderflow":    func(cfg *config.Config) Strategy { return NewOrderFlowFollow(cfg.Execution) },
	"openingrange": func(cfg *config.Config) Strategy { return NewOpeningRange(cfg.Execution) },
}

// Codes returns the sealed strategy codes, sorted.
func Codes() []string {
	codes := lo.Keys(builders)
	sort.Strings(codes)
	return codes
}

// Build instantiates the enabled strategies in config order. Any unknown
// code fails the whole build.
func Build(cfg *config.Config) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(cfg.Strategies.Enabled))
	for _, code := range cfg.Strategies.Enabled {
		builder, ok := builders[code]
		if !ok {
			return nil, apperrors.Wrapf(apperrors.ErrUnknownStrategy, "strategy %q", code)
		}
		strategies = append(strategies, builder(cfg))
	}
	return strategies, nil
}
