package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit writes.
type Metrics struct {
	Written       *prometheus.CounterVec
	WriteFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Written: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyshare_audit_entries_total",
			Help: "Total number of audit entries persisted, by action",
		}, []string{"action"}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyshare_audit_write_failures_total",
			Help: "Total number of audit writes that failed and were dropped, by sink",
		}, []string{"sink"}),
	}
}

func (m *Metrics) IncWritten(action Action) {
	if m == nil {
		return
	}
	m.Written.WithLabelValues(string(action)).Inc()
}

func (m *Metrics) IncWriteFailures(sink string) {
	if m == nil {
		return
	}
	m.WriteFailures.WithLabelValues(sink).Inc()
}
