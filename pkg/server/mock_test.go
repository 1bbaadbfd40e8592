package server

import (
	"context"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/stretchr/testify/mock"
)

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) Current(ctx context.Context, location string) (types.WeatherObservation, error) {
	args := m.Called(ctx, location)
	return args.Get(0).(types.WeatherObservation), args.Error(1)
}

func (m *mockWeather) Forecast(ctx context.Context, location string) ([]types.ForecastSample, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ForecastSample), args.Error(1)
}
