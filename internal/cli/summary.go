package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-trader/internal/store"
	"options-trader/pkg/utils"
)

var (
	summaryDate   string
	summaryRecent int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the daily summary and recent trades",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := store.NewSQLiteStore(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()

		day := time.Now()
		if summaryDate != "" {
			day, err = time.Parse("2006-01-02", summaryDate)
			if err != nil {
				return fmt.Errorf("parsing --date: %w", err)
			}
		}

		summary, err := db.GetDailySummary(day)
		if err != nil {
			return err
		}

		color.Cyan("Summary for %s", summary.Date.Format("2006-01-02"))
		fmt.Printf("  Trades: %d (%d W / %d L)\n", summary.Trades, summary.Wins, summary.Losses)
		fmt.Printf("  Gross:  %s\n", utils.FormatPnL(summary.GrossPnL))
		fmt.Printf("  Net:    %s\n", utils.FormatPnL(summary.NetPnL))

		trades, err := db.RecentTrades(summaryRecent)
		if err != nil {
			return err
		}
		if len(trades) == 0 {
			return nil
		}

		fmt.Println()
		color.Cyan("Recent trades")
		for _, t := range trades {
			line := fmt.Sprintf("  %s  %s %.0f  %s -> %s  %s  (%s)",
				t.ExitTime.Format("15:04"),
				t.Direction, t.Strike,
				utils.FormatIndianCurrency(t.EntryPrice),
				utils.FormatIndianCurrency(t.ExitPrice),
				utils.FormatPnL(t.NetPnL),
				t.ExitReason)
			if t.NetPnL >= 0 {
				color.Green("%s", line)
			} else {
				color.Red("%s", line)
			}
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryDate, "date", "", "day to summarize (YYYY-MM-DD, default today)")
	summaryCmd.Flags().IntVar(&summaryRecent, "recent", 10, "number of recent trades to list")
	rootCmd.AddCommand(summaryCmd)
}
