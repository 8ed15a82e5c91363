package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PersistenceMetrics метрики сохранения и загрузки
type PersistenceMetrics struct {
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	snapshotBytes prometheus.Gauge
}

// NewPersistenceMetrics создаёт метрики и регистрирует их в reg
func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	m := &PersistenceMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "persistence",
			Name:      "operation_seconds",
			Help:      "Длительность сохранения и загрузки мира.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "persistence",
			Name:      "errors_total",
			Help:      "Неудачные сохранения и загрузки.",
		}, []string{"op"}),
		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "persistence",
			Name:      "snapshot_bytes",
			Help:      "Размер последнего записанного или прочитанного сохранения.",
		}),
	}

	reg.MustRegister(m.duration, m.errors, m.snapshotBytes)
	return m
}

// Observe записывает результат операции op ("save" или "load")
func (m *PersistenceMetrics) Observe(op string, d time.Duration, size int, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.errors.WithLabelValues(op).Inc()
		return
	}
	m.snapshotBytes.Set(float64(size))
}
