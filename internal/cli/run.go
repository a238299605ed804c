package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"options-trader/internal/datasource"
	"options-trader/internal/engine"
	"options-trader/internal/logging"
	"options-trader/internal/notify"
	"options-trader/internal/store"
)

var runDataFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a trading session over recorded data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runDataFile != "" {
			cfg.Session.DataFile = runDataFile
		}

		logger := logging.NewLogger()

		source, err := datasource.New(cfg.Session)
		if err != nil {
			return fmt.Errorf("creating data source: %w", err)
		}

		opts := engine.Options{Notifier: notify.NewTerminal()}
		if cfg.Journal.StoreEnabled {
			db, err := store.NewSQLiteStore(cfg.Journal.DBPath)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer db.Close()
			opts.Store = db
		}

		session, err := engine.New(cfg, source, logger, opts)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return session.Run(ctx)
	},
}

func init() {
	runCmd.Flags().StringVar(&runDataFile, "data", "", "candle CSV file (overrides session.data_file)")
	rootCmd.AddCommand(runCmd)
}
