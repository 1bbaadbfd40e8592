package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage/storagemock"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHistoryTelemetry(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	for i := 0; i < 60; i++ {
		require.NoError(t, db.InsertTelemetry(ctx, types.EnvironmentTelemetry{
			ID:        fmt.Sprintf("t%d", i),
			Location:  "Middlesbrough",
			Timestamp: testNow.Add(-time.Duration(i) * time.Hour),
		}))
	}
	srv := newTestServer(&mockWeather{}, db)
	handler := srv.setupHandler()

	get := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/history/telemetry"+query, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("Default Limit", func(t *testing.T) {
		w := get("")
		require.Equal(t, http.StatusOK, w.Code)
		var telemetry []types.EnvironmentTelemetry
		require.NoError(t, json.NewDecoder(w.Body).Decode(&telemetry))
		require.Len(t, telemetry, defaultTelemetryLimit)
		assert.Equal(t, testNow, telemetry[0].Timestamp)
		assert.True(t, telemetry[0].Timestamp.After(telemetry[1].Timestamp))
	})

	t.Run("Limit", func(t *testing.T) {
		w := get("?limit=5")
		require.Equal(t, http.StatusOK, w.Code)
		var telemetry []types.EnvironmentTelemetry
		require.NoError(t, json.NewDecoder(w.Body).Decode(&telemetry))
		assert.Len(t, telemetry, 5)
	})

	t.Run("Invalid Limit", func(t *testing.T) {
		for _, q := range []string{"?limit=0", "?limit=-1", "?limit=abc", "?limit=501"} {
			w := get(q)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})

	t.Run("Empty Store", func(t *testing.T) {
		srv := newTestServer(&mockWeather{}, storage.NewMemory())
		req := httptest.NewRequest(http.MethodGet, "/api/history/telemetry", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Storage Error", func(t *testing.T) {
		mdb := &storagemock.MockDatabase{}
		mdb.On("GetTelemetryHistory", mock.Anything, defaultTelemetryLimit).Return(nil, errors.New("boom"))
		srv := newTestServer(&mockWeather{}, mdb)

		req := httptest.NewRequest(http.MethodGet, "/api/history/telemetry", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mdb.AssertExpectations(t)
	})
}

func TestHistoryDecisions(t *testing.T) {
	t.Run("Default Range", func(t *testing.T) {
		mdb := &storagemock.MockDatabase{}
		mdb.On("GetDecisionHistory", mock.Anything, testNow.Add(-24*time.Hour), testNow).Return([]types.AdvisoryDecision{
			{ID: "d1", Kind: types.AdvisoryKindToday, Timestamp: testNow.Add(-time.Hour)},
		}, nil)
		srv := newTestServer(&mockWeather{}, mdb)

		req := httptest.NewRequest(http.MethodGet, "/api/history/decisions", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var decisions []types.AdvisoryDecision
		require.NoError(t, json.NewDecoder(w.Body).Decode(&decisions))
		require.Len(t, decisions, 1)
		assert.Equal(t, "d1", decisions[0].ID)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		mdb.AssertExpectations(t)
	})

	t.Run("Past Range Cached", func(t *testing.T) {
		db := storage.NewMemory()
		require.NoError(t, db.InsertDecision(context.Background(), types.AdvisoryDecision{
			ID:        "d1",
			Kind:      types.AdvisoryKindTomorrow,
			Timestamp: time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC),
		}))
		srv := newTestServer(&mockWeather{}, db)

		req := httptest.NewRequest(http.MethodGet, "/api/history/decisions?start=2026-05-20T00:00:00Z&end=2026-05-21T00:00:00Z", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var decisions []types.AdvisoryDecision
		require.NoError(t, json.NewDecoder(w.Body).Decode(&decisions))
		require.Len(t, decisions, 1)
		assert.Equal(t, types.AdvisoryKindTomorrow, decisions[0].Kind)
		assert.Equal(t, "private, max-age=86400", w.Header().Get("Cache-Control"))
	})

	t.Run("Invalid Range", func(t *testing.T) {
		srv := newTestServer(&mockWeather{}, &storagemock.MockDatabase{})
		handler := srv.setupHandler()
		for _, q := range []string{
			"?start=2026-05-20T00:00:00Z",
			"?start=yesterday&end=2026-05-21T00:00:00Z",
			"?start=2026-05-20T00:00:00Z&end=today",
			"?start=2026-05-21T00:00:00Z&end=2026-05-20T00:00:00Z",
			"?start=2026-05-20T00:00:00Z&end=2026-05-20T00:00:00Z",
			"?start=2026-05-01T00:00:00Z&end=2026-05-20T00:00:00Z",
		} {
			req := httptest.NewRequest(http.MethodGet, "/api/history/decisions"+q, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})

	t.Run("Seven Days", func(t *testing.T) {
		srv := newTestServer(&mockWeather{}, storage.NewMemory())
		req := httptest.NewRequest(http.MethodGet, "/api/history/decisions?start=2026-05-01T00:00:00Z&end=2026-05-08T00:00:00Z", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		// nothing stored in the range
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}
