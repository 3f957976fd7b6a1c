package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Suggestions.WithLabelValues("market-hunter", "alpha_opportunity").Inc()
	m.Suggestions.WithLabelValues("market-hunter", "alpha_opportunity").Inc()
	m.Discoveries.WithLabelValues("momentum").Inc()
	m.Reputation.WithLabelValues("market-hunter").Set(0.8)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Suggestions.WithLabelValues("market-hunter", "alpha_opportunity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Discoveries.WithLabelValues("momentum")))
	assert.Equal(t, 0.8, testutil.ToFloat64(m.Reputation.WithLabelValues("market-hunter")))
}

func TestObserveCycle(t *testing.T) {
	m := New()

	m.ObserveCycle(10*time.Millisecond, false)
	m.ObserveCycle(20*time.Millisecond, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Decisions.WithLabelValues("allocate", "bull").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `cryptointel_strategic_decisions_total{decision_type="allocate",regime="bull"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.CycleErrors.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CycleErrors))
}
