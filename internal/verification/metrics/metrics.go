package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification lifecycle.
type Metrics struct {
	// Transitions by event (submit, resubmit, pre_approve, approve, deny) and persona
	Transitions *prometheus.CounterVec

	// Rejected operations by operation and error code
	Rejections *prometheus.CounterVec

	// Document attach/detach/verify counts by action
	Documents *prometheus.CounterVec

	// Bulk update outcomes by result (modified, failed)
	BulkResults *prometheus.CounterVec

	// Queue query latency by scope (admin, school)
	QueueLatency *prometheus.HistogramVec
}

// New registers the verification metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_verification_transitions_total",
			Help: "Status transitions applied, by event and persona",
		}, []string{"event", "persona"}),

		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_verification_rejections_total",
			Help: "Lifecycle operations rejected, by operation and error code",
		}, []string{"operation", "code"}),

		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_verification_documents_total",
			Help: "Document attachment operations, by action",
		}, []string{"action"}),

		BulkResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_verification_bulk_results_total",
			Help: "Per-record outcomes of bulk status updates",
		}, []string{"result"}),

		QueueLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idverify_verification_queue_duration_seconds",
			Help:    "Duration of review queue and stats projections",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"scope"}),
	}
}

func (m *Metrics) IncrementTransition(event, persona string) {
	if m != nil {
		m.Transitions.WithLabelValues(event, persona).Inc()
	}
}

func (m *Metrics) IncrementRejection(operation, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, code).Inc()
	}
}

func (m *Metrics) IncrementDocument(action string) {
	if m != nil {
		m.Documents.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) AddBulkResults(modified, failed int) {
	if m != nil {
		m.BulkResults.WithLabelValues("modified").Add(float64(modified))
		m.BulkResults.WithLabelValues("failed").Add(float64(failed))
	}
}

func (m *Metrics) ObserveQueueLatency(scope string, d time.Duration) {
	if m != nil {
		m.QueueLatency.WithLabelValues(scope).Observe(d.Seconds())
	}
}
