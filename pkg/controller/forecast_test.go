package controller

import (
	"testing"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/stretchr/testify/assert"
)

func samplesWithCloud(clouds ...float64) []types.ForecastSample {
	start := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	samples := make([]types.ForecastSample, 0, len(clouds))
	for i, c := range clouds {
		samples = append(samples, types.ForecastSample{
			Timestamp:     start.Add(time.Duration(i*3) * time.Hour),
			CloudCoverPct: c,
			IrradianceWM2: EstimateIrradiance(c),
		})
	}
	return samples
}

func TestEstimateIrradiance(t *testing.T) {
	assert.Equal(t, 1000.0, EstimateIrradiance(0))
	assert.Equal(t, 0.0, EstimateIrradiance(100))
	assert.Equal(t, 850.0, EstimateIrradiance(15))
	assert.Equal(t, 150.0, EstimateIrradiance(85))

	t.Run("Clamped", func(t *testing.T) {
		assert.Equal(t, 0.0, EstimateIrradiance(120))
		assert.Equal(t, 1000.0, EstimateIrradiance(-5))
	})

	t.Run("Monotonic And Non Negative", func(t *testing.T) {
		prev := EstimateIrradiance(0)
		for c := 0.0; c <= 100; c += 0.5 {
			v := EstimateIrradiance(c)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, prev, "irradiance increased at cloud cover %v", c)
			prev = v
		}
	})
}

func TestSunHours(t *testing.T) {
	assert.Equal(t, 0.0, SunHours(nil))
	// 8 clear samples: 1000 W/m² avg over 8 samples
	assert.InDelta(t, 8.0/3, SunHours(samplesWithCloud(0, 0, 0, 0, 0, 0, 0, 0)), 1e-9)
	assert.InDelta(t, 0.5*8/3, SunHours(samplesWithCloud(50, 50, 50, 50, 50, 50, 50, 50)), 1e-9)
	assert.Equal(t, 0.0, SunHours(samplesWithCloud(100, 100)))
}

func TestTomorrowBalance(t *testing.T) {
	c := NewController()
	cfg := defaultConfig()

	t.Run("Empty Forecast", func(t *testing.T) {
		b := c.TomorrowBalance(nil, cfg, 3000)
		assert.Equal(t, 0.0, b.GenerationKWH)
		assert.Equal(t, cfg.BatteryCapacityWH/1000, b.AvailableKWH)
		assert.InDelta(t, b.AvailableKWH-3000.0/1000, b.NetKWH, 1e-9)
		assert.Equal(t, 0, b.SampleCount)
		assert.Equal(t, 0.0, b.SunHours)
	})

	t.Run("Clear Sky", func(t *testing.T) {
		b := c.TomorrowBalance(samplesWithCloud(0, 0, 0, 0, 0, 0, 0, 0), cfg, 3000)
		// 2000 * 0.18 * 2.6667 / 1000 = 0.96
		assert.Equal(t, 0.96, b.GenerationKWH)
		assert.Equal(t, 5.0, b.AvailableKWH)
		assert.InDelta(t, 2.0, b.NetKWH, 1e-9)
		assert.Equal(t, 8, b.SampleCount)
	})

	t.Run("Rounded Generation", func(t *testing.T) {
		// avg irradiance 150 across 3 samples: 0.15 sun hours
		// 2000 * 0.18 * 0.15 / 1000 = 0.054 -> 0.05
		b := c.TomorrowBalance(samplesWithCloud(85, 85, 85), cfg, 0)
		assert.Equal(t, 0.05, b.GenerationKWH)
	})

	t.Run("Deficit", func(t *testing.T) {
		b := c.TomorrowBalance(samplesWithCloud(90, 90, 90, 90), cfg, 6000)
		assert.InDelta(t, -1.0, b.NetKWH, 1e-9)
		assert.LessOrEqual(t, b.AvailableKWH, 5.0)
	})
}
