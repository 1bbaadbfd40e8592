package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

type scheduleResponse struct {
	Day      string                `json:"day"`
	Entries  []types.ScheduleEntry `json:"entries"`
	TotalKWH float64               `json:"totalKWH"`
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var entry types.ScheduleEntry
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode schedule entry", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := entry.Validate(); err != nil {
		writeJSONError(w, "invalid schedule entry: "+err.Error(), http.StatusBadRequest)
		return
	}
	entry.ID = s.newID()
	entry.CreatedAt = s.now().UTC()

	if err := s.storage.InsertScheduleEntry(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeJSONError(w, "schedule entry already exists", http.StatusConflict)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to insert schedule entry", slog.String("day", entry.Day), slog.Any("error", err))
		writeJSONError(w, "failed to save schedule entry", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"scheduled appliance",
		slog.String("day", entry.Day),
		slog.String("start", entry.Start),
		slog.String("appliance", entry.Appliance),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := r.URL.Query().Get("day")
	if day == "" {
		day = s.now().UTC().Format(types.ScheduleDayFormat)
	} else if _, err := time.Parse(types.ScheduleDayFormat, day); err != nil {
		writeJSONError(w, "day must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	entries, err := s.storage.GetSchedule(ctx, day)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get schedule", slog.String("day", day), slog.Any("error", err))
		writeJSONError(w, "failed to get schedule", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []types.ScheduleEntry{}
	}

	var total float64
	for _, e := range entries {
		total += e.ExpectedKWH
	}
	writeJSON(w, scheduleResponse{
		Day:      day,
		Entries:  entries,
		TotalKWH: math.Round(total*100) / 100,
	})
}
