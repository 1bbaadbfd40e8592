package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

// Memory implements Database in process memory. It is meant for local runs
// and tests; everything is lost on restart.
type Memory struct {
	mu        sync.RWMutex
	ids       map[string]struct{}
	telemetry []types.EnvironmentTelemetry
	profiles  []types.UsageProfile
	decisions []types.AdvisoryDecision
	schedule  []types.ScheduleEntry
}

var _ Database = (*Memory)(nil)

// NewMemory creates an empty in-memory database.
func NewMemory() *Memory {
	return &Memory{
		ids: make(map[string]struct{}),
	}
}

// claim reserves a collection/id pair. The caller must hold the write lock.
func (m *Memory) claim(collection, id string) error {
	if id == "" {
		return ErrMissingID
	}
	key := collection + "/" + id
	if _, ok := m.ids[key]; ok {
		return fmt.Errorf("%s: %w", key, ErrAlreadyExists)
	}
	m.ids[key] = struct{}{}
	return nil
}

func (m *Memory) InsertTelemetry(ctx context.Context, t types.EnvironmentTelemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(collectionTelemetry, t.ID); err != nil {
		return err
	}
	m.telemetry = append(m.telemetry, t)
	return nil
}

func (m *Memory) GetTelemetryHistory(ctx context.Context, limit int) ([]types.EnvironmentTelemetry, error) {
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	out := make([]types.EnvironmentTelemetry, len(m.telemetry))
	copy(out, m.telemetry)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) InsertUsageProfile(ctx context.Context, p types.UsageProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(collectionUsageProfiles, p.ID); err != nil {
		return err
	}
	m.profiles = append(m.profiles, p)
	return nil
}

// UsageProfiles returns every stored profile in insertion order.
func (m *Memory) UsageProfiles() []types.UsageProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.UsageProfile, len(m.profiles))
	copy(out, m.profiles)
	return out
}

func (m *Memory) InsertDecision(ctx context.Context, d types.AdvisoryDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(collectionDecisions, d.ID); err != nil {
		return err
	}
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *Memory) GetDecisionHistory(ctx context.Context, start, end time.Time) ([]types.AdvisoryDecision, error) {
	m.mu.RLock()
	var out []types.AdvisoryDecision
	for _, d := range m.decisions {
		if !d.Timestamp.Before(start) && d.Timestamp.Before(end) {
			out = append(out, d)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *Memory) InsertScheduleEntry(ctx context.Context, e types.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(collectionSchedule, e.ID); err != nil {
		return err
	}
	m.schedule = append(m.schedule, e)
	return nil
}

func (m *Memory) GetSchedule(ctx context.Context, day string) ([]types.ScheduleEntry, error) {
	m.mu.RLock()
	var out []types.ScheduleEntry
	for _, e := range m.schedule {
		if e.Day == day {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	sortSchedule(out)
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
