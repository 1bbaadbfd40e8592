package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreProvider(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	// a random database per run keeps runs isolated
	f := &FirestoreProvider{
		projectID: "test-project-id",
		database:  fmt.Sprintf("test-db-%d", time.Now().UnixNano()),
	}

	ctx := context.Background()
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	// firestore timestamps are microsecond precision
	now := time.Now().Truncate(time.Millisecond).UTC()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, f.Validate())
	})

	t.Run("Telemetry", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, f.InsertTelemetry(ctx, types.EnvironmentTelemetry{
				ID:            uuid.New().String(),
				Location:      "Middlesbrough,GB",
				Timestamp:     now.Add(time.Duration(i) * time.Minute),
				CloudCoverPct: float64(i),
			}))
		}
		got, err := f.GetTelemetryHistory(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2.0, got[0].CloudCoverPct)
		assert.True(t, got[0].Timestamp.After(got[1].Timestamp))
	})

	t.Run("Decisions", func(t *testing.T) {
		d := types.AdvisoryDecision{
			ID:              uuid.New().String(),
			Timestamp:       now,
			Kind:            types.AdvisoryKindToday,
			InputSummary:    map[string]float64{"netKWH": 2},
			Recommendation:  "Run optional devices",
			ConfidenceScore: 0.95,
			DecisionModel:   types.DecisionModelHeuristic,
			Explanation:     "based on solar input and usage profile",
		}
		require.NoError(t, f.InsertDecision(ctx, d))
		assert.ErrorIs(t, f.InsertDecision(ctx, d), ErrAlreadyExists)

		got, err := f.GetDecisionHistory(ctx, now.Add(-time.Minute), now.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, d.ID, got[0].ID)
		assert.Equal(t, d.InputSummary, got[0].InputSummary)
		assert.True(t, d.Timestamp.Equal(got[0].Timestamp))
	})

	t.Run("Usage Profile", func(t *testing.T) {
		require.NoError(t, f.InsertUsageProfile(ctx, types.UsageProfile{
			ID:           uuid.New().String(),
			Timestamp:    now,
			SystemConfig: types.DefaultSystemConfig(),
		}))
	})

	t.Run("Schedule", func(t *testing.T) {
		require.NoError(t, f.InsertScheduleEntry(ctx, types.ScheduleEntry{
			ID: uuid.New().String(), Day: "2026-10-15", Start: "14:00", Appliance: "Kettle", DurationHours: 0.5, ExpectedKWH: 0.2, CreatedAt: now,
		}))
		require.NoError(t, f.InsertScheduleEntry(ctx, types.ScheduleEntry{
			ID: uuid.New().String(), Day: "2026-10-15", Start: "09:00", Appliance: "Iron", DurationHours: 1, ExpectedKWH: 1, CreatedAt: now,
		}))

		got, err := f.GetSchedule(ctx, "2026-10-15")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "09:00", got[0].Start)
	})
}
