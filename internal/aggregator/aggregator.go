// Package aggregator renders one trade decision per tick from the set
// of strategy signals, weighing confluence against the market context.
package aggregator

import (
	"fmt"

	"github.com/samber/lo"

	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Aggregator scores signal confluence per direction and resolves
// conflicts into exactly one decision. It is stateless and
// deterministic: the same signals and context always render the same
// decision, independent of signal order.
type Aggregator struct {
	cfg config.AggregatorConfig
}

// New creates an aggregator.
func New(cfg config.AggregatorConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

type sideScore struct {
	direction    models.Direction
	count        int
	score        float64
	confidence   int // summed per-signal confidence, drives dominance
	contributors []string

	targetDistance float64
	stopDistance   float64
}

// Aggregate renders the decision for one tick.
func (a *Aggregator) Aggregate(signals []*models.StrategySignal, ctx models.MarketContext) models.AggregatedSignal {
	out := models.AggregatedSignal{
		Decision:  models.DecisionWait,
		Direction: models.NoTrade,
		Timestamp: ctx.Timestamp,
	}

	signals = lo.Filter(signals, func(s *models.StrategySignal, _ int) bool {
		return s != nil && s.Direction != models.NoTrade
	})
	if len(signals) == 0 {
		return out
	}

	calls := a.scoreSide(models.BuyCall, signals, ctx)
	puts := a.scoreSide(models.BuyPut, signals, ctx)

	winner, skipReason := a.resolve(calls, puts, ctx)
	if winner == nil {
		out.Decision = models.DecisionSkip
		out.SkipReason = skipReason
		return out
	}

	threshold := a.cfg.LowThreshold
	if ctx.Volatility == models.VolExtreme || ctx.Window == models.WindowLunch {
		threshold += a.cfg.EscalationBonus
	}
	if winner.score < threshold {
		out.Decision = models.DecisionSkip
		out.SkipReason = fmt.Sprintf("confluence %.1f below threshold %.1f", winner.score, threshold)
		return out
	}
	if !ctx.IsTradeable() {
		out.Decision = models.DecisionSkip
		out.SkipReason = fmt.Sprintf("context not tradeable (window %s, volatility %s)", ctx.Window, ctx.Volatility)
		return out
	}

	out.Decision = models.DecisionExecute
	out.Direction = winner.direction
	out.Confluence = winner.score
	out.Contributors = winner.contributors
	out.SizeMultiplier = models.ClampMultiplier(a.sizeTier(winner.score) * ctx.SizeMultiplier())
	out.TargetDistance = winner.targetDistance
	out.StopDistance = winner.stopDistance
	return out
}

// scoreSide computes the confluence score for one direction: raw count,
// strength bonuses, and context agreement bonuses.
func (a *Aggregator) scoreSide(dir models.Direction, signals []*models.StrategySignal, ctx models.MarketContext) *sideScore {
	side := &sideScore{direction: dir}
	bestConfidence := 0

	for _, s := range signals {
		if s.Direction != dir {
			continue
		}
		side.count++
		side.score++
		side.confidence += s.Confidence
		side.contributors = append(side.contributors, s.Strategy)
		if s.Strength == models.StrengthStrong {
			side.score += a.cfg.StrongBonus
		}
		// Exit distances come from the most confident contributor that
		// suggests any.
		if s.Confidence > bestConfidence && (s.TargetDistance > 0 || s.StopDistance > 0) {
			bestConfidence = s.Confidence
			side.targetDistance = s.TargetDistance
			side.stopDistance = s.StopDistance
		}
	}
	if side.count == 0 {
		return side
	}

	if regimeDirection(ctx.Regime) == dir {
		side.score += a.cfg.RegimeBonus
	}
	if ctx.Bias.Direction() == dir {
		side.score += a.cfg.BiasBonus
	}
	if ctx.Flow.SmartMoney == dir {
		side.score += a.cfg.FlowBonus
	}
	if ctx.Flow.VolumeState.Elevated() {
		side.score += a.cfg.VolumeBonus
	}
	return side
}

// resolve picks a winning side. With signals on both sides, count
// dominance is tried first, then summed-confidence dominance, then the
// context bias as tie-breaker; a genuine standoff is skipped.
func (a *Aggregator) resolve(calls, puts *sideScore, ctx models.MarketContext) (*sideScore, string) {
	switch {
	case calls.count == 0 && puts.count == 0:
		return nil, "no directional signals"
	case puts.count == 0:
		return calls, ""
	case calls.count == 0:
		return puts, ""
	}

	if diff := calls.count - puts.count; diff > a.cfg.CountDominance {
		return calls, ""
	} else if -diff > a.cfg.CountDominance {
		return puts, ""
	}

	if diff := float64(calls.confidence - puts.confidence); diff > a.cfg.ScoreDominance {
		return calls, ""
	} else if -diff > a.cfg.ScoreDominance {
		return puts, ""
	}

	switch ctx.Bias.Direction() {
	case models.BuyCall:
		return calls, ""
	case models.BuyPut:
		return puts, ""
	}

	return nil, fmt.Sprintf("unresolved conflict: %d call vs %d put signals, confidence %d vs %d",
		calls.count, puts.count, calls.confidence, puts.confidence)
}

// sizeTier maps the confluence score to the base size multiplier.
func (a *Aggregator) sizeTier(score float64) float64 {
	switch {
	case score >= a.cfg.HighThreshold:
		return 1.2
	case score >= a.cfg.MediumThreshold:
		return 1.0
	default:
		return 0.7
	}
}

func regimeDirection(r models.Regime) models.Direction {
	switch r {
	case models.RegimeTrendingUp:
		return models.BuyCall
	case models.RegimeTrendingDown:
		return models.BuyPut
	default:
		return models.NoTrade
	}
}
