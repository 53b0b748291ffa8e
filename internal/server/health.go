package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sketchduel/api/internal/ai"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Providers []string          `json:"providers"`
}

func handleHealth(logger *slog.Logger, db *sql.DB, rdb *redis.Client, providers map[string]*ai.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status: "ok",
			Checks: map[string]string{"sqlite": "ok"},
		}
		status := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", "name", "sqlite", "error", err)
			resp.Checks["sqlite"] = "error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		if rdb == nil {
			resp.Checks["redis"] = "disabled"
		} else if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("health check failed", "name", "redis", "error", err)
			resp.Checks["redis"] = "error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["redis"] = "ok"
		}

		for name := range providers {
			resp.Providers = append(resp.Providers, name)
		}
		sort.Strings(resp.Providers)

		writeJSON(w, status, resp)
	}
}
