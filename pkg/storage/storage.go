package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

var (
	ErrAlreadyExists = errors.New("record already exists")
	ErrMissingID     = errors.New("record id cannot be empty")
)

const (
	collectionTelemetry     = "environment_telemetry"
	collectionUsageProfiles = "usage_profiles"
	collectionDecisions     = "ai_decision_log"
	collectionSchedule      = "energy_schedule"
)

// Database defines the interface for the append-only advisory logs.
type Database interface {
	// Telemetry
	InsertTelemetry(ctx context.Context, t types.EnvironmentTelemetry) error
	// GetTelemetryHistory returns the latest limit records, newest first.
	GetTelemetryHistory(ctx context.Context, limit int) ([]types.EnvironmentTelemetry, error)

	// Usage profiles
	InsertUsageProfile(ctx context.Context, p types.UsageProfile) error

	// Decisions
	InsertDecision(ctx context.Context, d types.AdvisoryDecision) error
	// GetDecisionHistory returns decisions in [start, end), oldest first.
	GetDecisionHistory(ctx context.Context, start, end time.Time) ([]types.AdvisoryDecision, error)

	// Energy budgeting schedule
	InsertScheduleEntry(ctx context.Context, e types.ScheduleEntry) error
	// GetSchedule returns the entries for a day (YYYY-MM-DD) ordered by start.
	GetSchedule(ctx context.Context, day string) ([]types.ScheduleEntry, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore, memory)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "memory":
			p.Database = NewMemory()
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
