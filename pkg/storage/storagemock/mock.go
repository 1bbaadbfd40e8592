package storagemock

import (
	"context"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) InsertTelemetry(ctx context.Context, t types.EnvironmentTelemetry) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockDatabase) GetTelemetryHistory(ctx context.Context, limit int) ([]types.EnvironmentTelemetry, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]types.EnvironmentTelemetry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) InsertUsageProfile(ctx context.Context, p types.UsageProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockDatabase) InsertDecision(ctx context.Context, d types.AdvisoryDecision) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDatabase) GetDecisionHistory(ctx context.Context, start, end time.Time) ([]types.AdvisoryDecision, error) {
	args := m.Called(ctx, start, end)
	if v := args.Get(0); v != nil {
		return v.([]types.AdvisoryDecision), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) InsertScheduleEntry(ctx context.Context, e types.ScheduleEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockDatabase) GetSchedule(ctx context.Context, day string) ([]types.ScheduleEntry, error) {
	args := m.Called(ctx, day)
	if v := args.Get(0); v != nil {
		return v.([]types.ScheduleEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
