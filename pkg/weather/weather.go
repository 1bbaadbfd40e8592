package weather

import (
	"context"
	"errors"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

// ErrUnavailable is wrapped by every error a Provider returns when it could
// not produce weather data. Callers should degrade rather than fail.
var ErrUnavailable = errors.New("weather data unavailable")

// Provider fetches current conditions and the short-range forecast for a
// location formatted as "City,CC".
type Provider interface {
	// Current returns the latest observation for the location.
	Current(ctx context.Context, location string) (types.WeatherObservation, error)

	// Forecast returns the 3-hourly forecast samples for the location, oldest
	// first. The samples may span several days.
	Forecast(ctx context.Context, location string) ([]types.ForecastSample, error)
}

// Configured sets up the weather provider based on flags.
func Configured() *OpenWeatherMap {
	return configuredOpenWeatherMap()
}

// Tomorrow returns the samples whose UTC calendar date is the day after now.
func Tomorrow(samples []types.ForecastSample, now time.Time) []types.ForecastSample {
	y, m, d := now.UTC().AddDate(0, 0, 1).Date()
	var tomorrow []types.ForecastSample
	for _, s := range samples {
		sy, sm, sd := s.Timestamp.UTC().Date()
		if sy == y && sm == m && sd == d {
			tomorrow = append(tomorrow, s)
		}
	}
	return tomorrow
}

// MeanCloudCover returns the mean cloud cover of the samples. ok is false if
// there are none.
func MeanCloudCover(samples []types.ForecastSample) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	var total float64
	for _, s := range samples {
		total += s.CloudCoverPct
	}
	return total / float64(len(samples)), true
}
