package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/cities"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/controller"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/metrics"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/weather"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 << 20

type applianceRequest struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Watt     float64  `json:"watt"`
	Hours    *float64 `json:"hours"`
}

type adviseRequest struct {
	// Location is a display name ("City, CC"). Empty uses the default city.
	Location     string              `json:"location"`
	Appliances   []applianceRequest  `json:"appliances"`
	SystemConfig *types.SystemConfig `json:"systemConfig"`
}

type adviseResponse struct {
	Location     string                    `json:"location"`
	SystemConfig types.SystemConfig        `json:"systemConfig"`
	Appliances   []types.Appliance         `json:"appliances"`
	Weather      *types.WeatherObservation `json:"weather,omitempty"`
	WeatherError string                    `json:"weatherError,omitempty"`

	Today          types.EnergyBalance  `json:"today"`
	TodayAdvice    types.Advice         `json:"todayAdvice"`
	Tomorrow       *types.EnergyBalance `json:"tomorrow,omitempty"`
	TomorrowAdvice types.Advice         `json:"tomorrowAdvice"`
	Anomaly        *types.Anomaly       `json:"anomaly,omitempty"`
	Flow           []types.FlowPoint    `json:"flow"`

	// Warnings lists records that could not be logged.
	Warnings []string `json:"warnings,omitempty"`
}

// normalizeAppliances fills catalog defaults and validates the selection.
func normalizeAppliances(reqs []applianceRequest) (types.Appliances, error) {
	appliances := make(types.Appliances, len(reqs))
	for _, req := range reqs {
		if req.ID == "" {
			return nil, errors.New("appliance id is required")
		}
		if _, ok := appliances[req.ID]; ok {
			return nil, fmt.Errorf("duplicate appliance: %s", req.ID)
		}
		a := types.Appliance{
			ID:       req.ID,
			Name:     req.Name,
			Category: req.Category,
			Watt:     req.Watt,
			Hours:    types.DefaultApplianceHours,
		}
		if req.Hours != nil {
			a.Hours = *req.Hours
		}
		if item, ok := types.LookupCatalogItem(req.ID); ok {
			if a.Name == "" {
				a.Name = item.Name
			}
			a.Category = item.Category
			// only the custom appliance takes a user provided wattage
			if !item.Custom || a.Watt == 0 {
				a.Watt = item.Watt
			}
		} else if a.Category == "" {
			a.Category = types.CategoryOther
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		appliances[a.ID] = a
	}
	return appliances, nil
}

func (s *Server) resolveLocation(display string) (string, string, error) {
	if display == "" {
		display = s.cities.Default()
		if display == "" {
			return "", "", errors.New("location is required")
		}
	}
	if _, ok := s.cities.Lookup(display); !ok {
		return "", "", fmt.Errorf("unknown location: %s", display)
	}
	param, err := cities.LocationParam(display)
	if err != nil {
		return "", "", err
	}
	return display, param, nil
}

func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adviseRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode advise request", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appliances, err := normalizeAppliances(req.Appliances)
	if err != nil {
		writeJSONError(w, "invalid appliances: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg := types.DefaultSystemConfig()
	if req.SystemConfig != nil {
		cfg = *req.SystemConfig
	}
	if err := cfg.Validate(); err != nil {
		writeJSONError(w, "invalid system config: "+err.Error(), http.StatusBadRequest)
		return
	}
	display, locationParam, err := s.resolveLocation(req.Location)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx = log.WithAttrs(ctx, slog.String("location", locationParam))

	resp := s.advise(ctx, display, locationParam, appliances, cfg)
	writeJSON(w, resp)
}

// advise runs one advisory pass. Weather and persistence failures degrade
// the response, they never fail it.
func (s *Server) advise(ctx context.Context, display, locationParam string, appliances types.Appliances, cfg types.SystemConfig) adviseResponse {
	now := s.now()
	resp := adviseResponse{
		Location:     display,
		SystemConfig: cfg,
		Appliances:   appliances.Sorted(),
	}

	var (
		obs               types.WeatherObservation
		samples           []types.ForecastSample
		obsErr, sampleErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		obs, obsErr = s.weather.Current(ctx, locationParam)
		return nil
	})
	g.Go(func() error {
		samples, sampleErr = s.weather.Forecast(ctx, locationParam)
		return nil
	})
	_ = g.Wait()

	var weatherErrs []error
	if obsErr == nil {
		resp.Weather = &obs
	} else {
		weatherErrs = append(weatherErrs, obsErr)
	}
	if sampleErr != nil {
		weatherErrs = append(weatherErrs, sampleErr)
	}
	if len(weatherErrs) > 0 {
		err := errors.Join(weatherErrs...)
		log.Ctx(ctx).WarnContext(ctx, "advising without complete weather data", slog.Any("error", err))
		resp.WeatherError = err.Error()
	}

	// today
	resp.Today = s.controller.TodayBalance(appliances, cfg)
	resp.TodayAdvice = s.controller.Recommend(types.AdvisoryKindToday, resp.Today, appliances)
	resp.Flow = controller.EnergyFlow(resp.Today, now)
	observeAdvice(resp.TodayAdvice, resp.Today)

	// tomorrow
	var tomorrowSamples []types.ForecastSample
	if sampleErr == nil {
		tomorrowSamples = weather.Tomorrow(samples, now)
		tomorrow := s.controller.TomorrowBalance(tomorrowSamples, cfg, resp.Today.TotalLoadWH)
		resp.Tomorrow = &tomorrow
		resp.TomorrowAdvice = s.controller.Recommend(types.AdvisoryKindTomorrow, tomorrow, appliances)
		observeAdvice(resp.TomorrowAdvice, tomorrow)
	} else {
		resp.TomorrowAdvice = s.controller.Unavailable(types.AdvisoryKindTomorrow, "forecast unavailable")
		metrics.AdvisoryPasses.WithLabelValues(string(types.AdvisoryKindTomorrow), string(types.AdvisoryStateUnavailable)).Inc()
	}

	// anomaly needs both days
	if tomorrowCloud, ok := weather.MeanCloudCover(tomorrowSamples); ok && resp.Weather != nil {
		anomaly := s.controller.Anomaly(resp.Weather.CloudCoverPct, tomorrowCloud)
		resp.Anomaly = &anomaly
		if anomaly.Detected {
			metrics.AnomaliesDetected.Inc()
		}
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"advised",
		slog.String("todayState", string(resp.TodayAdvice.State)),
		slog.Float64("todayNetKWH", resp.Today.NetKWH),
		slog.String("tomorrowState", string(resp.TomorrowAdvice.State)),
	)

	resp.Warnings = s.persist(ctx, now, resp, appliances)
	return resp
}

func observeAdvice(advice types.Advice, balance types.EnergyBalance) {
	metrics.AdvisoryPasses.WithLabelValues(string(advice.Kind), string(advice.State)).Inc()
	metrics.NetBalance.WithLabelValues(string(advice.Kind)).Observe(balance.NetKWH)
}

// persist logs telemetry, the usage profile and both decisions. Failures
// are returned as warnings.
func (s *Server) persist(ctx context.Context, now time.Time, resp adviseResponse, appliances types.Appliances) []string {
	var warnings []string
	record := func(kind, what string, err error) {
		if err == nil {
			return
		}
		metrics.PersistenceFailures.WithLabelValues(kind).Inc()
		log.Ctx(ctx).ErrorContext(ctx, "failed to log record", slog.String("record", kind), slog.Any("error", err))
		warnings = append(warnings, "failed to log "+what)
	}

	if resp.Weather != nil {
		record("telemetry", "environment telemetry", s.storage.InsertTelemetry(ctx, types.EnvironmentTelemetry{
			ID:            s.newID(),
			Location:      resp.Weather.Location,
			Timestamp:     now.UTC(),
			TemperatureC:  resp.Weather.TemperatureC,
			HumidityPct:   resp.Weather.HumidityPct,
			CloudCoverPct: resp.Weather.CloudCoverPct,
			IrradianceWM2: resp.Weather.IrradianceWM2,
		}))
	}
	record("usage_profile", "usage profile", s.storage.InsertUsageProfile(ctx, types.UsageProfile{
		ID:           s.newID(),
		Timestamp:    now.UTC(),
		Location:     resp.Location,
		Appliances:   appliances.Sorted(),
		SystemConfig: resp.SystemConfig,
	}))
	record("decision", "today's decision", s.storage.InsertDecision(ctx, resp.TodayAdvice.Decision))
	record("decision", "tomorrow's decision", s.storage.InsertDecision(ctx, resp.TomorrowAdvice.Decision))
	return warnings
}
