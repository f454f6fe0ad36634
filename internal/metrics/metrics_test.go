package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveAttempt(true, 2*time.Second)
	c.ObserveAttempt(true, time.Second)
	c.ObserveAttempt(false, time.Second)
	c.ObserveBatch(2, false)
	c.ObserveBatch(0, true)
	c.SetItemsRemaining(600)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.attempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attempts.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches.WithLabelValues("aborted")))
	assert.Equal(t, 600.0, testutil.ToFloat64(c.itemsRemaining))
	assert.Equal(t, 1, testutil.CollectAndCount(c.attemptDuration))
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("GET", "/api/v1/info", "200", 10*time.Millisecond)
	m.Observe("GET", "/api/v1/info", "200", 20*time.Millisecond)
	m.Observe("POST", "/api/v1/mint", "409", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/info", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/v1/mint", "409")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}
