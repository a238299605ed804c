// Package notify renders engine events for a human watching the session.
package notify

import (
	"fmt"

	"github.com/fatih/color"

	"options-trader/internal/models"
	"options-trader/pkg/utils"
)

// Notifier receives engine events. Implementations must be cheap; they
// run inline in the tick loop.
type Notifier interface {
	EntryFilled(pos models.Position)
	TradeClosed(rec models.TradeRecord)
	Decision(sig models.AggregatedSignal)
	Halted(netPnL float64)
	SessionSummary(stats models.DailyStats)
}

// Terminal prints colored event lines to stdout.
type Terminal struct {
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
}

// NewTerminal creates a terminal notifier.
func NewTerminal() *Terminal {
	return &Terminal{
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
	}
}

// EntryFilled announces a filled entry.
func (t *Terminal) EntryFilled(pos models.Position) {
	t.cyan.Printf("▶ ENTRY %s %.0f @ %s x %s\n",
		pos.Direction, pos.Strike,
		utils.FormatIndianCurrency(pos.EntryPrice),
		utils.FormatQuantity(int64(pos.Quantity)))
}

// TradeClosed announces a completed round trip.
func (t *Terminal) TradeClosed(rec models.TradeRecord) {
	c := t.green
	if rec.NetPnL < 0 {
		c = t.red
	}
	c.Printf("■ EXIT  %s %.0f @ %s  %s (%s)\n",
		rec.Direction, rec.Strike,
		utils.FormatIndianCurrency(rec.ExitPrice),
		utils.FormatPnL(rec.NetPnL),
		rec.ExitReason)
}

// Decision announces an EXECUTE verdict; skips and waits stay quiet.
func (t *Terminal) Decision(sig models.AggregatedSignal) {
	if sig.Decision != models.DecisionExecute {
		return
	}
	t.yellow.Printf("● SIGNAL %s confluence %.1f (%v)\n",
		sig.Direction, sig.Confluence, sig.Contributors)
}

// Halted announces the risk halt.
func (t *Terminal) Halted(netPnL float64) {
	t.red.Printf("✖ HALTED daily loss limit hit, PnL %s\n", utils.FormatPnL(netPnL))
}

// SessionSummary prints the end-of-session scorecard.
func (t *Terminal) SessionSummary(stats models.DailyStats) {
	fmt.Println()
	t.cyan.Println("Session summary")
	fmt.Printf("  Trades:   %d (%d W / %d L, %.1f%%)\n",
		stats.Trades, stats.Wins, stats.Losses, stats.WinRate())
	fmt.Printf("  Gross:    %s\n", utils.FormatPnL(stats.GrossPnL))
	fmt.Printf("  Net:      %s\n", utils.FormatPnL(stats.NetPnL))
	fmt.Printf("  Drawdown: %s\n", utils.FormatIndianCurrency(stats.Drawdown))
}

// Silent is a no-op notifier for headless runs and tests.
type Silent struct{}

func (Silent) EntryFilled(models.Position)        {}
func (Silent) TradeClosed(models.TradeRecord)     {}
func (Silent) Decision(models.AggregatedSignal)   {}
func (Silent) Halted(float64)                     {}
func (Silent) SessionSummary(models.DailyStats)   {}
