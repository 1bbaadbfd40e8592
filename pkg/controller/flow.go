package controller

import (
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

const flowPoints = 24

// EnergyFlow spreads today's generation and load linearly over the next 24
// hours for charting, starting at start.
func EnergyFlow(balance types.EnergyBalance, start time.Time) []types.FlowPoint {
	loadKWH := balance.TotalLoadWH / 1000
	points := make([]types.FlowPoint, 0, flowPoints)
	for i := 0; i < flowPoints; i++ {
		frac := float64(i) / float64(flowPoints-1)
		points = append(points, types.FlowPoint{
			Label:    start.Add(time.Duration(i) * time.Hour).Format("15:04"),
			SolarKWH: balance.GenerationKWH * frac,
			LoadKWH:  loadKWH * frac,
		})
	}
	return points
}
