package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/common"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/controller"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/metrics"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
	"github.com/sony/gobreaker"
)

const (
	endpointCurrent  = "weather"
	endpointForecast = "forecast"

	defaultForecastCacheTTL = time.Hour
)

// OpenWeatherMap implements Provider using the OpenWeatherMap 2.5 API.
// Forecasts are cached per location.
type OpenWeatherMap struct {
	apiURL   string
	apiKey   string
	cacheTTL time.Duration
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time

	mu        sync.Mutex
	forecasts map[string]cachedForecast
}

// statusError is returned for a non-200 response from OpenWeatherMap.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openweathermap returned status: %d", e.code)
}

// callerError reports whether err was caused by the request rather than the
// provider, like an unknown city. Rate limiting still counts as a failure.
func callerError(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests
}

type cachedForecast struct {
	fetched time.Time
	samples []types.ForecastSample
}

// configuredOpenWeatherMap sets up flags for OpenWeatherMap and returns the
// instance.
func configuredOpenWeatherMap() *OpenWeatherMap {
	o := newOpenWeatherMap("", "", common.HTTPClient(10*time.Second))
	apiURL := lflag.String("openweathermap-api-url", "https://api.openweathermap.org/data/2.5", "Base URL for the OpenWeatherMap API")
	apiKey := lflag.String("openweathermap-api-key", "", "API key for OpenWeatherMap (defaults to $OPENWEATHERMAP_API_KEY)")
	cacheTTL := lflag.Duration("weather-forecast-cache", defaultForecastCacheTTL, "How long to cache forecasts per location. 0 disables the cache.")

	lflag.Do(func() {
		o.apiURL = strings.TrimSuffix(*apiURL, "/")
		o.apiKey = *apiKey
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENWEATHERMAP_API_KEY")
		}
		o.cacheTTL = *cacheTTL
	})

	return o
}

func newOpenWeatherMap(apiURL, apiKey string, client *http.Client) *OpenWeatherMap {
	return &OpenWeatherMap{
		apiURL:    strings.TrimSuffix(apiURL, "/"),
		apiKey:    apiKey,
		cacheTTL:  defaultForecastCacheTTL,
		client:    client,
		breaker:   newBreaker("openweathermap"),
		now:       time.Now,
		forecasts: make(map[string]cachedForecast),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	metrics.WeatherBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// client errors like an unknown city don't count toward tripping
		IsSuccessful: func(err error) bool {
			return err == nil || callerError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.WeatherBreakerState.WithLabelValues(name).Set(float64(to))
			log.Ctx(context.Background()).Warn(
				"weather circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// Validate ensures the configuration is valid.
func (o *OpenWeatherMap) Validate() error {
	if o.apiURL == "" {
		return fmt.Errorf("openweathermap-api-url is required")
	}
	if _, err := url.Parse(o.apiURL); err != nil {
		return fmt.Errorf("failed to parse openweathermap url (%s): %w", o.apiURL, err)
	}
	if o.apiKey == "" {
		return fmt.Errorf("openweathermap-api-key is required")
	}
	return nil
}

type owmClouds struct {
	All float64 `json:"all"`
}

type owmCurrentResponse struct {
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Clouds owmClouds `json:"clouds"`
}

type owmForecastResponse struct {
	List []struct {
		Dt     int64     `json:"dt"`
		Clouds owmClouds `json:"clouds"`
	} `json:"list"`
}

// Current returns the latest observation for the location.
func (o *OpenWeatherMap) Current(ctx context.Context, location string) (types.WeatherObservation, error) {
	var data owmCurrentResponse
	if err := o.get(ctx, endpointCurrent, location, &data); err != nil {
		return types.WeatherObservation{}, err
	}

	ts := o.now().UTC()
	if data.Dt > 0 {
		ts = time.Unix(data.Dt, 0).UTC()
	}
	obs := types.WeatherObservation{
		Location:      location,
		Timestamp:     ts,
		TemperatureC:  data.Main.Temp,
		HumidityPct:   data.Main.Humidity,
		CloudCoverPct: data.Clouds.All,
		IrradianceWM2: controller.EstimateIrradiance(data.Clouds.All),
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"got current weather",
		slog.String("location", location),
		slog.Float64("cloudCoverPct", obs.CloudCoverPct),
		slog.Float64("temperatureC", obs.TemperatureC),
	)
	return obs, nil
}

// Forecast returns the forecast samples for the location, serving from the
// cache when the last fetch is younger than the cache TTL.
func (o *OpenWeatherMap) Forecast(ctx context.Context, location string) ([]types.ForecastSample, error) {
	key := strings.ToLower(location)
	now := o.now()

	o.mu.Lock()
	if c, ok := o.forecasts[key]; ok && o.cacheTTL > 0 && now.Sub(c.fetched) < o.cacheTTL {
		samples := c.samples
		o.mu.Unlock()
		log.Ctx(ctx).DebugContext(ctx, "using cached forecast", slog.String("location", location))
		return samples, nil
	}
	o.mu.Unlock()

	var data owmForecastResponse
	if err := o.get(ctx, endpointForecast, location, &data); err != nil {
		return nil, err
	}

	samples := make([]types.ForecastSample, 0, len(data.List))
	for _, entry := range data.List {
		samples = append(samples, types.ForecastSample{
			Timestamp:     time.Unix(entry.Dt, 0).UTC(),
			CloudCoverPct: entry.Clouds.All,
			IrradianceWM2: controller.EstimateIrradiance(entry.Clouds.All),
		})
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched forecast",
		slog.String("location", location),
		slog.Int("count", len(samples)),
	)

	if o.cacheTTL > 0 {
		o.mu.Lock()
		o.forecasts[key] = cachedForecast{fetched: now, samples: samples}
		o.mu.Unlock()
	}

	return samples, nil
}

// get calls the endpoint through the circuit breaker and decodes the JSON
// body into v. Every error wraps ErrUnavailable.
func (o *OpenWeatherMap) get(ctx context.Context, endpoint, location string, v any) error {
	_, err := o.breaker.Execute(func() (interface{}, error) {
		return nil, o.fetch(ctx, endpoint, location, v)
	})
	if err != nil {
		metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		metrics.WeatherFailures.WithLabelValues(endpoint).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Ctx(ctx).WarnContext(ctx, "weather circuit breaker rejected request", slog.String("endpoint", endpoint))
		} else {
			log.Ctx(ctx).ErrorContext(
				ctx,
				"failed to fetch weather",
				slog.String("endpoint", endpoint),
				slog.String("location", location),
				slog.Any("error", err),
			)
		}
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}
	metrics.WeatherRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

func (o *OpenWeatherMap) fetch(ctx context.Context, endpoint, location string, v any) error {
	u, err := url.Parse(o.apiURL + "/" + endpoint)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", o.apiKey)
	params.Set("units", "metric")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching weather", slog.String("endpoint", endpoint), slog.String("location", location))

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
