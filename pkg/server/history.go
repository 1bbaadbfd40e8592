package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

const (
	defaultTelemetryLimit = 48
	maxTelemetryLimit     = 500
	maxDecisionRange      = 7 * 24 * time.Hour
)

func (s *Server) handleHistoryTelemetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultTelemetryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxTelemetryLimit {
			writeJSONError(w, fmt.Sprintf("limit must be between 1 and %d", maxTelemetryLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	telemetry, err := s.storage.GetTelemetryHistory(ctx, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get telemetry", slog.Int("limit", limit), slog.Any("error", err))
		writeJSONError(w, "failed to get telemetry", http.StatusInternalServerError)
		return
	}
	if telemetry == nil {
		telemetry = []types.EnvironmentTelemetry{}
	}
	writeJSON(w, telemetry)
}

func (s *Server) handleHistoryDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	decisions, err := s.storage.GetDecisionHistory(ctx, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get decisions", slog.Time("start", start), slog.Time("end", end), slog.Any("error", err))
		writeJSONError(w, "failed to get decisions", http.StatusInternalServerError)
		return
	}
	if decisions == nil {
		decisions = []types.AdvisoryDecision{}
	}

	// a range that ended before today can't change anymore
	today := s.now().UTC().Truncate(24 * time.Hour)
	if end.Before(today) {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	}
	writeJSON(w, decisions)
}

func (s *Server) parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" && endStr == "" {
		// Default to last 24 hours if not specified
		end := s.now()
		start := end.Add(-24 * time.Hour)
		return start, end, nil
	}
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end must be specified together")
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxDecisionRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed 7 days")
	}

	return start, end, nil
}
