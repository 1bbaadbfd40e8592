package types

import (
	"fmt"
	"math"
	"time"
)

// WeatherObservation is the current weather at a location.
type WeatherObservation struct {
	Location      string    `json:"location"`
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperatureC"`
	HumidityPct   float64   `json:"humidityPct"`
	CloudCoverPct float64   `json:"cloudCoverPct"`
	IrradianceWM2 float64   `json:"irradianceWM2"` // estimated from cloud cover
}

// ForecastSample is a single 3-hour forecast interval.
type ForecastSample struct {
	Timestamp     time.Time `json:"timestamp"`
	CloudCoverPct float64   `json:"cloudCoverPct"`
	IrradianceWM2 float64   `json:"irradianceWM2"`
}

// EnergyBalance is the result of netting available energy against load.
type EnergyBalance struct {
	TotalLoadWH   float64 `json:"totalLoadWH"`
	GenerationKWH float64 `json:"generationKWH"`
	// AvailableKWH never exceeds the battery capacity.
	AvailableKWH float64 `json:"availableKWH"`
	// NetKWH is negative when there is a deficit.
	NetKWH float64 `json:"netKWH"`
	// CurtailedKWH is the generation discarded by the battery capacity cap.
	CurtailedKWH float64 `json:"curtailedKWH"`
	SunHours     float64 `json:"sunHours"`
	SampleCount  int     `json:"sampleCount,omitempty"`
}

// AdvisoryKind identifies which day an advisory is for.
type AdvisoryKind string

const (
	AdvisoryKindToday    AdvisoryKind = "today"
	AdvisoryKindTomorrow AdvisoryKind = "tomorrow"
)

// AdvisoryState is the classification of a net balance.
type AdvisoryState string

const (
	AdvisoryStateDeficit    AdvisoryState = "deficit"
	AdvisoryStateSufficient AdvisoryState = "sufficient"
	AdvisoryStateSurplus    AdvisoryState = "surplus"
	// AdvisoryStateUnavailable is used when there wasn't enough data to advise.
	AdvisoryStateUnavailable AdvisoryState = "unavailable"
)

// Decision models recorded on advisory decisions.
const (
	DecisionModelHeuristic = "heuristic"
	DecisionModelForecast  = "forecast-advisor"
)

// AdvisoryDecision is an append-only record of a single recommendation.
type AdvisoryDecision struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Kind            AdvisoryKind       `json:"kind"`
	InputSummary    map[string]float64 `json:"inputSummary"`
	Recommendation  string             `json:"recommendation"`
	ConfidenceScore float64            `json:"confidenceScore"` // 0-1
	DecisionModel   string             `json:"decisionModel"`
	Explanation     string             `json:"explanation"`
}

// Advice is the recommendation for a single day.
type Advice struct {
	Kind                AdvisoryKind     `json:"kind"`
	State               AdvisoryState    `json:"state"`
	Message             string           `json:"message"`
	ReductionCandidates []Appliance      `json:"reductionCandidates,omitempty"`
	Decision            AdvisoryDecision `json:"decision"`
}

// Anomaly compares today's and tomorrow's cloud cover.
type Anomaly struct {
	TodayCloudCoverPct    float64 `json:"todayCloudCoverPct"`
	TomorrowCloudCoverPct float64 `json:"tomorrowCloudCoverPct"`
	DeviationPct          float64 `json:"deviationPct"`
	ThresholdPct          float64 `json:"thresholdPct"`
	Detected              bool    `json:"detected"`
	Message               string  `json:"message"`
}

// FlowPoint is one hour of the energy flow series.
type FlowPoint struct {
	Label    string  `json:"label"` // HH:MM
	SolarKWH float64 `json:"solarKWH"`
	LoadKWH  float64 `json:"loadKWH"`
}

// EnvironmentTelemetry is a logged weather observation.
type EnvironmentTelemetry struct {
	ID            string    `json:"id"`
	Location      string    `json:"location"`
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperatureC"`
	HumidityPct   float64   `json:"humidityPct"`
	CloudCoverPct float64   `json:"cloudCoverPct"`
	IrradianceWM2 float64   `json:"irradianceWM2"`
}

// UsageProfile is a logged appliance selection and system configuration.
type UsageProfile struct {
	ID           string       `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	Location     string       `json:"location,omitempty"`
	Appliances   []Appliance  `json:"appliances"`
	SystemConfig SystemConfig `json:"systemConfig"`
}

const (
	MinScheduleDurationHours = 0.5
	MaxScheduleDurationHours = 4.0
	MinScheduleExpectedKWH   = 0.1

	// ScheduleDayFormat is the layout of ScheduleEntry.Day.
	ScheduleDayFormat = "2006-01-02"
	// ScheduleStartFormat is the layout of ScheduleEntry.Start.
	ScheduleStartFormat = "15:04"
)

// ScheduleAppliances are the appliances that can be put on the energy budget.
var ScheduleAppliances = []string{"Washing Machine", "Iron", "Kettle", "Fridge", "Heater"}

// ScheduleEntry is a planned appliance run on the energy budget.
type ScheduleEntry struct {
	ID            string    `json:"id"`
	Day           string    `json:"day"`   // YYYY-MM-DD
	Start         string    `json:"start"` // HH:MM
	Appliance     string    `json:"appliance"`
	DurationHours float64   `json:"durationHours"`
	ExpectedKWH   float64   `json:"expectedKWH"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks the schedule entry fields.
func (e ScheduleEntry) Validate() error {
	if _, err := time.Parse(ScheduleDayFormat, e.Day); err != nil {
		return fmt.Errorf("invalid day %q: %w", e.Day, err)
	}
	if _, err := time.Parse(ScheduleStartFormat, e.Start); err != nil {
		return fmt.Errorf("invalid start %q: %w", e.Start, err)
	}
	var known bool
	for _, a := range ScheduleAppliances {
		if a == e.Appliance {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown appliance: %s", e.Appliance)
	}
	if math.IsNaN(e.DurationHours) || e.DurationHours < MinScheduleDurationHours || e.DurationHours > MaxScheduleDurationHours {
		return fmt.Errorf("duration must be between %.1f and %.1f hours", MinScheduleDurationHours, MaxScheduleDurationHours)
	}
	if math.Mod(e.DurationHours, ApplianceHourStep) != 0 {
		return fmt.Errorf("duration must be in %.1f hour steps", ApplianceHourStep)
	}
	if math.IsNaN(e.ExpectedKWH) || math.IsInf(e.ExpectedKWH, 0) || e.ExpectedKWH < MinScheduleExpectedKWH {
		return fmt.Errorf("expected energy must be at least %.1f kWh", MinScheduleExpectedKWH)
	}
	return nil
}
