package controller

import (
	"math"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

const (
	peakIrradianceWM2   = 1000.0
	forecastSampleHours = 3.0
)

// EstimateIrradiance maps cloud cover (0-100%) to an estimated irradiance in
// W/m². It is a linear proxy, not a radiation model: 0% is 1000 W/m² and
// 100% is 0. Cloud cover outside 0-100 is clamped.
func EstimateIrradiance(cloudCoverPct float64) float64 {
	if math.IsNaN(cloudCoverPct) {
		return 0
	}
	c := math.Max(0, math.Min(100, cloudCoverPct))
	return math.Max(0, (100-c)*10)
}

// SunHours converts forecast samples into equivalent full-sun hours.
func SunHours(samples []types.ForecastSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += EstimateIrradiance(s.CloudCoverPct)
	}
	n := float64(len(samples))
	avg := total / n
	// each sample is a 3-hour interval
	return avg / peakIrradianceWM2 * n / forecastSampleHours
}

// TomorrowBalance projects tomorrow's balance from forecast samples. No
// samples means no generation, not an error. Generation is rounded to 2
// decimal places before it is capped and netted.
func (c *Controller) TomorrowBalance(samples []types.ForecastSample, cfg types.SystemConfig, todayLoadWH float64) types.EnergyBalance {
	sunHours := SunHours(samples)
	var generationKWH float64
	if len(samples) > 0 {
		generationKWH = round2(cfg.SolarCapacityW * (cfg.PanelEfficiencyPct / 100) * sunHours / 1000)
	}
	b := balanceFromGeneration(cfg, generationKWH, todayLoadWH)
	b.SunHours = sunHours
	b.SampleCount = len(samples)
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
