package controller

import (
	"testing"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() types.SystemConfig {
	return types.SystemConfig{
		SolarCapacityW:     2000,
		PanelEfficiencyPct: 18,
		BatteryCapacityWH:  5000,
	}
}

// appliancesWithLoad returns a selection that totals loadWH.
func appliancesWithLoad(loadWH float64) types.Appliances {
	return types.Appliances{
		"air_conditioner": {ID: "air_conditioner", Watt: 2000, Hours: loadWH / 2000},
	}
}

func TestTotalLoadWH(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, 0.0, TotalLoadWH(nil))
		assert.Equal(t, 0.0, TotalLoadWH(types.Appliances{}))
	})

	t.Run("Sum", func(t *testing.T) {
		as := types.Appliances{
			"tv":           {ID: "tv", Watt: 100, Hours: 4},
			"refrigerator": {ID: "refrigerator", Watt: 150, Hours: 24},
			"fan":          {ID: "fan", Watt: 70, Hours: 2.5},
			"laptop":       {ID: "laptop", Watt: 60, Hours: 0},
		}
		assert.InDelta(t, 400+3600+175, TotalLoadWH(as), 1e-9)
	})
}

func TestComputeBalance(t *testing.T) {
	t.Run("Surplus Scenario", func(t *testing.T) {
		b := ComputeBalance(defaultConfig(), DefaultTodaySunHours, 3000)
		assert.InDelta(t, 1.8, b.GenerationKWH, 1e-9)
		assert.InDelta(t, 5.0, b.AvailableKWH, 1e-9)
		assert.InDelta(t, 2.0, b.NetKWH, 1e-9)
		assert.InDelta(t, 1.8, b.CurtailedKWH, 1e-9)
		assert.Equal(t, DefaultTodaySunHours, b.SunHours)
		assert.Equal(t, 3000.0, b.TotalLoadWH)
	})

	t.Run("Deficit Scenario", func(t *testing.T) {
		b := ComputeBalance(defaultConfig(), DefaultTodaySunHours, 6000)
		assert.InDelta(t, 5.0, b.AvailableKWH, 1e-9)
		assert.InDelta(t, -1.0, b.NetKWH, 1e-9)
	})

	t.Run("Available Never Exceeds Battery", func(t *testing.T) {
		cfg := defaultConfig()
		for _, sunHours := range []float64{0, 1, 5, 12, 24, 1000} {
			for _, capacity := range []float64{100, 2000, 10000, 1e6} {
				cfg.SolarCapacityW = capacity
				b := ComputeBalance(cfg, sunHours, 1234)
				assert.LessOrEqual(t, b.AvailableKWH, cfg.BatteryCapacityWH/1000)
				assert.InDelta(t, b.AvailableKWH-1234.0/1000, b.NetKWH, 1e-9)
			}
		}
	})

	t.Run("Zero Efficiency", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.PanelEfficiencyPct = 0
		b := ComputeBalance(cfg, DefaultTodaySunHours, 1000)
		assert.Equal(t, 0.0, b.GenerationKWH)
		assert.Equal(t, 0.0, b.CurtailedKWH)
		assert.InDelta(t, 4.0, b.NetKWH, 1e-9)
	})
}

func TestTodayBalance(t *testing.T) {
	c := NewController()
	b := c.TodayBalance(appliancesWithLoad(3000), defaultConfig())
	assert.InDelta(t, 3000, b.TotalLoadWH, 1e-9)
	assert.InDelta(t, 1.8, b.GenerationKWH, 1e-9)
	assert.InDelta(t, 2.0, b.NetKWH, 1e-9)

	t.Run("Custom Sun Hours", func(t *testing.T) {
		c := NewController(WithTodaySunHours(2.5))
		require.Equal(t, 2.5, c.TodaySunHours())
		b := c.TodayBalance(types.Appliances{}, defaultConfig())
		assert.InDelta(t, 0.9, b.GenerationKWH, 1e-9)
		assert.InDelta(t, 5.0, b.NetKWH, 1e-9)
	})
}

func TestEnergyFlow(t *testing.T) {
	start := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	b := types.EnergyBalance{TotalLoadWH: 2300, GenerationKWH: 1.8}
	points := EnergyFlow(b, start)
	require.Len(t, points, 24)
	assert.Equal(t, "09:30", points[0].Label)
	assert.Equal(t, 0.0, points[0].SolarKWH)
	assert.Equal(t, 0.0, points[0].LoadKWH)
	assert.Equal(t, "08:30", points[23].Label)
	assert.InDelta(t, 1.8, points[23].SolarKWH, 1e-9)
	assert.InDelta(t, 2.3, points[23].LoadKWH, 1e-9)
	assert.InDelta(t, 0.1, points[1].LoadKWH, 1e-9)
}
