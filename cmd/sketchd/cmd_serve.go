package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sketchduel/api/internal/ai"
	"github.com/sketchduel/api/internal/ai/anthropic"
	"github.com/sketchduel/api/internal/ai/openai"
	"github.com/sketchduel/api/internal/analytics"
	"github.com/sketchduel/api/internal/config"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/game"
	"github.com/sketchduel/api/internal/prompt"
	"github.com/sketchduel/api/internal/recent"
	"github.com/sketchduel/api/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	store := server.NewSQLiteStore(db)

	if err := server.SeedAdmin(ctx, logger, store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	// Redis is optional; without it recent-prompt tracking is in-process.
	var rdb *redis.Client
	tracker := recent.Tracker(recent.NewMemoryTracker(cfg.RecentPromptLimit))
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		tracker = recent.NewRedisTracker(rdb, cfg.RecentPromptLimit)
		logger.Info("connected to redis")
	}

	providers := buildProviders(cfg, logger)
	if len(providers) == 0 {
		logger.Warn("no AI providers configured, analysis requests will fail")
	}

	selector := deck.NewSelector(store)
	templates := prompt.NewRegistry()
	arbiter := game.NewArbiter(store, selector, templates, providers,
		cfg.DefaultProvider, cfg.PromptVersion, logger)
	aggregator := analytics.NewAggregator(store)

	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:     logger,
		DB:         db,
		RDB:        rdb,
		Store:      store,
		Arbiter:    arbiter,
		Selector:   selector,
		Aggregator: aggregator,
		Templates:  templates,
		Tracker:    tracker,
		Providers:  providers,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func buildProviders(cfg *config.Config, logger *slog.Logger) map[string]*ai.Client {
	providers := make(map[string]*ai.Client)

	if cfg.OpenAIKey != "" {
		model := ""
		if cfg.DefaultProvider == "openai" {
			model = cfg.DefaultModel
		}
		v := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, model, cfg.AITimeout)
		providers["openai"] = ai.NewClient(v, cfg.AIMaxRPS)
		logger.Info("ai provider configured", "provider", "openai", "model", v.DefaultModel())
	}

	if cfg.AnthropicKey != "" {
		model := ""
		if cfg.DefaultProvider == "anthropic" {
			model = cfg.DefaultModel
		}
		v := anthropic.New(cfg.AnthropicKey, cfg.AnthropicBaseURL, model, cfg.AITimeout)
		providers["anthropic"] = ai.NewClient(v, cfg.AIMaxRPS)
		logger.Info("ai provider configured", "provider", "anthropic", "model", v.DefaultModel())
	}

	return providers
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
