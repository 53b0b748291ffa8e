package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sketchduel/api/internal/analytics"
	"github.com/sketchduel/api/internal/server"
)

var rollupDate string

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Run the daily model-performance rollup once",
	Long: "Recomputes the per-model daily snapshots for one date and refreshes\n" +
		"per-prompt correct rates. Safe to re-run; intended for cron.",
	RunE: runRollup,
}

func init() {
	rollupCmd.Flags().StringVar(&rollupDate, "date", "", "date to roll up as YYYY-MM-DD (default yesterday UTC)")
}

func runRollup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	_, logger, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	date := rollupDate
	if date == "" {
		date = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", rollupDate)
	}

	store := server.NewSQLiteStore(db)
	aggregator := analytics.NewAggregator(store)

	n, err := aggregator.RollupDay(ctx, date)
	if err != nil {
		return fmt.Errorf("rolling up %s: %w", date, err)
	}
	if err := store.RefreshItemRates(ctx); err != nil {
		return fmt.Errorf("refreshing item rates: %w", err)
	}

	logger.Info("rollup complete", "date", date, "snapshots", n)
	return nil
}
