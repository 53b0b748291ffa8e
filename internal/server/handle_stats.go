package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sketchduel/api/internal/analytics"
)

func handleStats(agg *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := agg.RealTimeStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleModelStats(agg *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := queryInt(r, "days", 7)
		if days < 1 || days > 90 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}

		comparison, err := agg.ModelComparison(r.Context(), days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, comparison)
	}
}

func handlePerformance(agg *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := queryInt(r, "hours", 24)
		if hours < 1 || hours > 720 {
			writeError(w, http.StatusBadRequest, "hours must be between 1 and 720")
			return
		}

		report, err := agg.APIPerformance(r.Context(), hours)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// RollupResponse reports how many model snapshots a rollup produced.
type RollupResponse struct {
	Date      string `json:"date"`
	Snapshots int    `json:"snapshots"`
}

func handleAdminRollup(logger *slog.Logger, agg *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		n, err := agg.RollupDay(r.Context(), date)
		if err != nil {
			logger.Error("rollup failed", "date", date, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("rollup complete", "date", date, "snapshots", n, "admin", adminFrom(r).Email)
		writeJSON(w, http.StatusOK, RollupResponse{Date: date, Snapshots: n})
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
