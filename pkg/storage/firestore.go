package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements Database using Google Cloud Firestore.
// Each record is a document holding the JSON encoded record plus the fields
// needed for querying.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

var _ Database = (*FirestoreProvider)(nil)

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// an empty project ID is detected from the environment
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// create writes a new document. Records are never overwritten.
func (f *FirestoreProvider) create(ctx context.Context, collection, id string, record any, fields map[string]interface{}) error {
	if id == "" {
		return ErrMissingID
	}
	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", collection, err)
	}
	data := map[string]interface{}{
		"json": string(jsonBytes),
	}
	for k, v := range fields {
		data[k] = v
	}
	_, err = f.client.Collection(collection).Doc(id).Create(ctx, data)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert %s record: %w", collection, err)
	}
	return nil
}

// decodeDoc unmarshals the "json" field of a document into v.
func decodeDoc(ctx context.Context, doc *firestore.DocumentSnapshot, v any) error {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "doc missing json", slog.String("path", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "doc json not string", slog.String("path", doc.Ref.Path))
		return fmt.Errorf("document %s 'json' field is not string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal doc", slog.String("path", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("failed to unmarshal document (id=%s): %w", doc.Ref.ID, err)
	}
	return nil
}

// collect drains the iterator, decoding every document into a T.
func collect[T any](ctx context.Context, iter *firestore.DocumentIterator) ([]T, error) {
	defer iter.Stop()

	var records []T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating documents: %w", err)
		}
		var r T
		if err := decodeDoc(ctx, doc, &r); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// InsertTelemetry adds a weather observation to "environment_telemetry".
func (f *FirestoreProvider) InsertTelemetry(ctx context.Context, t types.EnvironmentTelemetry) error {
	return f.create(ctx, collectionTelemetry, t.ID, t, map[string]interface{}{
		"timestamp": t.Timestamp,
		"location":  t.Location,
	})
}

// GetTelemetryHistory returns the latest limit telemetry records, newest first.
func (f *FirestoreProvider) GetTelemetryHistory(ctx context.Context, limit int) ([]types.EnvironmentTelemetry, error) {
	if limit <= 0 {
		return nil, nil
	}
	iter := f.client.Collection(collectionTelemetry).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	return collect[types.EnvironmentTelemetry](ctx, iter)
}

// InsertUsageProfile adds a usage profile to "usage_profiles".
func (f *FirestoreProvider) InsertUsageProfile(ctx context.Context, p types.UsageProfile) error {
	return f.create(ctx, collectionUsageProfiles, p.ID, p, map[string]interface{}{
		"timestamp": p.Timestamp,
	})
}

// InsertDecision adds an advisory decision to "ai_decision_log".
func (f *FirestoreProvider) InsertDecision(ctx context.Context, d types.AdvisoryDecision) error {
	return f.create(ctx, collectionDecisions, d.ID, d, map[string]interface{}{
		"timestamp": d.Timestamp,
		"kind":      string(d.Kind),
	})
}

// GetDecisionHistory retrieves decisions within [start, end), oldest first.
func (f *FirestoreProvider) GetDecisionHistory(ctx context.Context, start, end time.Time) ([]types.AdvisoryDecision, error) {
	iter := f.client.Collection(collectionDecisions).
		Where("timestamp", ">=", start).
		Where("timestamp", "<", end).
		OrderBy("timestamp", firestore.Asc).
		Documents(ctx)
	return collect[types.AdvisoryDecision](ctx, iter)
}

// InsertScheduleEntry adds an entry to "energy_schedule".
func (f *FirestoreProvider) InsertScheduleEntry(ctx context.Context, e types.ScheduleEntry) error {
	return f.create(ctx, collectionSchedule, e.ID, e, map[string]interface{}{
		"timestamp": e.CreatedAt,
		"day":       e.Day,
	})
}

// GetSchedule returns the entries for a day ordered by start time.
func (f *FirestoreProvider) GetSchedule(ctx context.Context, day string) ([]types.ScheduleEntry, error) {
	// sorted here so the query doesn't need a composite index
	iter := f.client.Collection(collectionSchedule).
		Where("day", "==", day).
		Documents(ctx)
	entries, err := collect[types.ScheduleEntry](ctx, iter)
	if err != nil {
		return nil, err
	}
	sortSchedule(entries)
	return entries, nil
}

func sortSchedule(entries []types.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Start != entries[j].Start {
			return entries[i].Start < entries[j].Start
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
