package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementTransition("approve", "student")
	m.IncrementTransition("approve", "student")
	m.AddBulkResults(4, 1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transitions.WithLabelValues("approve", "student")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.BulkResults.WithLabelValues("modified")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BulkResults.WithLabelValues("failed")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementTransition("submit", "student")
		m.IncrementRejection("submit", "conflict")
		m.IncrementDocument("attach")
		m.AddBulkResults(1, 0)
		m.ObserveQueueLatency("admin", 0)
	})
}
