package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(PersistenceFailures.WithLabelValues("decision"))
	PersistenceFailures.WithLabelValues("decision").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PersistenceFailures.WithLabelValues("decision")))

	before = testutil.ToFloat64(AdvisoryPasses.WithLabelValues("today", "surplus"))
	AdvisoryPasses.WithLabelValues("today", "surplus").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AdvisoryPasses.WithLabelValues("today", "surplus")))
}

func TestHandler(t *testing.T) {
	WeatherFailures.WithLabelValues("forecast").Inc()
	NetBalance.WithLabelValues("today").Observe(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "energy_optimiser_weather_failures_total")
	assert.Contains(t, string(body), "energy_optimiser_net_balance_kwh_bucket")
}
