package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AdvisoryPasses counts recommendations produced, by advisory kind and state.
	AdvisoryPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_optimiser_advisory_passes_total",
		Help: "Total advisories produced",
	}, []string{"kind", "state"})

	// NetBalance records the net balance of each advisory.
	NetBalance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "energy_optimiser_net_balance_kwh",
		Help:    "Net energy balance per advisory in kWh",
		Buckets: []float64{-10, -5, -2, -1, -0.5, 0, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	// AnomaliesDetected counts flagged cloud cover anomalies.
	AnomaliesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energy_optimiser_anomalies_detected_total",
		Help: "Total cloud cover anomalies detected",
	})

	// WeatherRequests counts weather provider calls by endpoint and result.
	WeatherRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_optimiser_weather_requests_total",
		Help: "Total weather provider requests",
	}, []string{"endpoint", "result"})

	// WeatherFailures counts failed weather provider calls by endpoint.
	WeatherFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_optimiser_weather_failures_total",
		Help: "Total failed weather provider requests",
	}, []string{"endpoint"})

	// WeatherBreakerState is 0 closed, 1 half-open and 2 open.
	WeatherBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "energy_optimiser_weather_breaker_state",
		Help: "State of the weather provider circuit breaker",
	}, []string{"name"})

	// PersistenceFailures counts failed writes by record type.
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_optimiser_persistence_failures_total",
		Help: "Total failed persistence writes",
	}, []string{"record"})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
