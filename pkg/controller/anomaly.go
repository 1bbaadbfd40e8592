package controller

import (
	"fmt"
	"math"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

// DetectAnomaly reports whether tomorrow's cloud cover differs from today's by
// at least thresholdPct percentage points.
func DetectAnomaly(todayCloudPct, tomorrowCloudPct, thresholdPct float64) bool {
	return math.Abs(tomorrowCloudPct-todayCloudPct) >= thresholdPct
}

// Anomaly compares today's and tomorrow's cloud cover using the configured
// threshold.
func (c *Controller) Anomaly(todayCloudPct, tomorrowCloudPct float64) types.Anomaly {
	a := types.Anomaly{
		TodayCloudCoverPct:    todayCloudPct,
		TomorrowCloudCoverPct: tomorrowCloudPct,
		DeviationPct:          math.Abs(tomorrowCloudPct - todayCloudPct),
		ThresholdPct:          c.anomalyThresholdPct,
		Detected:              DetectAnomaly(todayCloudPct, tomorrowCloudPct, c.anomalyThresholdPct),
	}
	switch {
	case !a.Detected:
		a.Message = "Solar conditions are stable for the next 24 hours."
	case tomorrowCloudPct > todayCloudPct:
		a.Message = fmt.Sprintf("Anomaly Detected: Cloud cover change = %.0f%%. Solar energy expected to drop sharply tomorrow. Consider shifting high-load appliances to today.", a.DeviationPct)
	default:
		a.Message = fmt.Sprintf("Anomaly Detected: Cloud cover change = %.0f%%. Solar energy expected to rise sharply tomorrow. Consider shifting flexible loads to tomorrow.", a.DeviationPct)
	}
	return a
}
