package controller

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

const (
	// DefaultTodaySunHours is the assumed insolation window for today.
	DefaultTodaySunHours = 5.0
	// DefaultAnomalyThresholdPct is the cloud cover change that is flagged.
	DefaultAnomalyThresholdPct = 50.0
	// DefaultSurplusThresholdKWH is the net balance above which there is a surplus.
	DefaultSurplusThresholdKWH = 1.0
	// DefaultReductionCandidates is how many appliances are suggested for reduction.
	DefaultReductionCandidates = 3
)

// Controller computes energy balances and recommendations. It holds only
// tunables so a single Controller can be shared across requests.
type Controller struct {
	todaySunHours       float64
	anomalyThresholdPct float64
	surplusThresholdKWH float64
	reductionCandidates int

	now   func() time.Time
	newID func() string
}

// Option configures a Controller.
type Option func(c *Controller)

// WithTodaySunHours sets the sun hours assumed for today's generation.
func WithTodaySunHours(hours float64) Option {
	return func(c *Controller) {
		c.todaySunHours = hours
	}
}

// WithAnomalyThreshold sets the cloud cover change (percentage points) that
// counts as an anomaly.
func WithAnomalyThreshold(pct float64) Option {
	return func(c *Controller) {
		c.anomalyThresholdPct = pct
	}
}

// WithClock sets the clock used to timestamp decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator sets the function used to generate decision IDs.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		c.newID = newID
	}
}

// NewController creates a new Controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		todaySunHours:       DefaultTodaySunHours,
		anomalyThresholdPct: DefaultAnomalyThresholdPct,
		surplusThresholdKWH: DefaultSurplusThresholdKWH,
		reductionCandidates: DefaultReductionCandidates,
		now:                 time.Now,
		newID: func() string {
			return uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TodaySunHours returns the sun hours assumed for today.
func (c *Controller) TodaySunHours() float64 {
	return c.todaySunHours
}

// AnomalyThresholdPct returns the configured anomaly threshold.
func (c *Controller) AnomalyThresholdPct() float64 {
	return c.anomalyThresholdPct
}

// TotalLoadWH sums watt x hours over the selected appliances.
func TotalLoadWH(appliances types.Appliances) float64 {
	var total float64
	for _, a := range appliances {
		total += a.EnergyWH()
	}
	return total
}

// ComputeBalance estimates generation over sunHours and nets the available
// energy against loadWH.
func ComputeBalance(cfg types.SystemConfig, sunHours, loadWH float64) types.EnergyBalance {
	generationKWH := cfg.SolarCapacityW * (cfg.PanelEfficiencyPct / 100) * sunHours / 1000
	b := balanceFromGeneration(cfg, generationKWH, loadWH)
	b.SunHours = sunHours
	return b
}

// balanceFromGeneration caps available energy at the battery capacity, so
// generation only ever replaces the same day's draw on the battery.
func balanceFromGeneration(cfg types.SystemConfig, generationKWH, loadWH float64) types.EnergyBalance {
	batteryKWH := cfg.BatteryCapacityKWH()
	availableKWH := math.Min(batteryKWH+generationKWH, batteryKWH)
	return types.EnergyBalance{
		TotalLoadWH:   loadWH,
		GenerationKWH: generationKWH,
		AvailableKWH:  availableKWH,
		NetKWH:        availableKWH - loadWH/1000,
		CurtailedKWH:  batteryKWH + generationKWH - availableKWH,
	}
}

// TodayBalance computes today's balance using the fixed sun hours.
func (c *Controller) TodayBalance(appliances types.Appliances, cfg types.SystemConfig) types.EnergyBalance {
	return ComputeBalance(cfg, c.todaySunHours, TotalLoadWH(appliances))
}
