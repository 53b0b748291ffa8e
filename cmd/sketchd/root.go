package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sketchduel/api/internal/config"
	"github.com/sketchduel/api/internal/database"
	"github.com/sketchduel/api/internal/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sketchd",
	Short: "Round arbitration and analytics for the drawing-guessing game",
	Long: "sketchd runs the SketchDuel backend: humans draw, AI vision models guess,\n" +
		"and this service selects prompts, scores rounds, and tracks model performance.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rollupCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.Version = version
}

// bootstrap loads config, builds the logger, and opens the migrated database.
// Every subcommand starts here.
func bootstrap(ctx context.Context) (*config.Config, *slog.Logger, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	return cfg, logger, db, nil
}
