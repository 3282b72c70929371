package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/inventory-service/internal/port"
)

const namespace = "inventory"

// CreatorMetrics counts generated-id write attempts per sequence.
type CreatorMetrics struct {
	attempts  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	created   *prometheus.CounterVec
}

func NewCreatorMetrics(reg prometheus.Registerer) *CreatorMetrics {
	newCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "id_creator",
			Name:      name,
			Help:      help,
		}, []string{"sequence"})
	}

	m := &CreatorMetrics{
		attempts:  newCounter("attempts_total", "Persist attempts, one sequence value each."),
		conflicts: newCounter("conflicts_total", "Attempts rejected because the id was already taken."),
		exhausted: newCounter("exhausted_total", "Creations that ran out of attempts."),
		created:   newCounter("created_total", "Records persisted under a generated id."),
	}
	reg.MustRegister(m.attempts, m.conflicts, m.exhausted, m.created)
	return m
}

func (m *CreatorMetrics) Attempt(sequence string) {
	m.attempts.WithLabelValues(sequence).Inc()
}

func (m *CreatorMetrics) Conflict(sequence string) {
	m.conflicts.WithLabelValues(sequence).Inc()
}

func (m *CreatorMetrics) Exhausted(sequence string) {
	m.exhausted.WithLabelValues(sequence).Inc()
}

func (m *CreatorMetrics) Created(sequence string) {
	m.created.WithLabelValues(sequence).Inc()
}

var _ port.CreatorMetrics = (*CreatorMetrics)(nil)
