// Package server exposes the arbitration engine over HTTP: round analysis
// and persistence, deck management, analytics endpoints, an SSE stream of
// round results, and the admin surface.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sketchduel/api/internal/ai"
	"github.com/sketchduel/api/internal/analytics"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/game"
	"github.com/sketchduel/api/internal/prompt"
	"github.com/sketchduel/api/internal/recent"
)

// Deps collects everything the HTTP layer needs. RDB may be nil when no
// redis is configured; the health check then reports it as skipped.
type Deps struct {
	Logger     *slog.Logger
	DB         *sql.DB
	RDB        *redis.Client
	Store      Store
	Arbiter    *game.Arbiter
	Selector   *deck.Selector
	Aggregator *analytics.Aggregator
	Templates  *prompt.Registry
	Tracker    recent.Tracker
	Providers  map[string]*ai.Client
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, deps Deps) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, deps)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: deps.Logger,
	}
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
