package types

import (
	"fmt"
	"math"
)

// SystemConfig describes the household's solar and battery system.
type SystemConfig struct {
	SolarCapacityW     float64 `json:"solarCapacityW"`
	PanelEfficiencyPct float64 `json:"panelEfficiencyPct"` // 0-100
	BatteryCapacityWH  float64 `json:"batteryCapacityWH"`
}

// DefaultSystemConfig returns the configuration used when none is provided.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		SolarCapacityW:     2000,
		PanelEfficiencyPct: 18,
		BatteryCapacityWH:  5000,
	}
}

// BatteryCapacityKWH returns the battery capacity in kWh.
func (c SystemConfig) BatteryCapacityKWH() float64 {
	return c.BatteryCapacityWH / 1000
}

// Validate checks the configuration ranges.
func (c SystemConfig) Validate() error {
	if !isPositive(c.SolarCapacityW) {
		return fmt.Errorf("solar capacity must be positive")
	}
	if !isPositive(c.BatteryCapacityWH) {
		return fmt.Errorf("battery capacity must be positive")
	}
	if math.IsNaN(c.PanelEfficiencyPct) || c.PanelEfficiencyPct < 0 || c.PanelEfficiencyPct > 100 {
		return fmt.Errorf("panel efficiency must be between 0 and 100")
	}
	return nil
}

func isPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
