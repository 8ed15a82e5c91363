package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorldMetrics инкапсулирует Prometheus-метрики мира.
// Все методы безопасны для nil-получателя: мир без метрик просто ничего не пишет.
type WorldMetrics struct {
	chunks         prometheus.Gauge
	detailed       prometheus.Gauge
	blocks         prometheus.Gauge
	trees          prometheus.Gauge
	lodTransitions *prometheus.CounterVec
	edits          *prometheus.CounterVec
	generation     prometheus.Histogram
	update         prometheus.Histogram
	respawns       prometheus.Counter
}

// NewWorldMetrics создаёт метрики и регистрирует их в reg
func NewWorldMetrics(reg prometheus.Registerer) *WorldMetrics {
	m := &WorldMetrics{
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunks",
			Help:      "Количество чанков в мире.",
		}),
		detailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunks_detailed",
			Help:      "Количество чанков в детальном состоянии.",
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "blocks",
			Help:      "Количество блоков во всех чанках.",
		}),
		trees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "trees",
			Help:      "Количество деревьев в мире.",
		}),
		lodTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "lod_transitions_total",
			Help:      "Переходы чанков между детальным и упрощённым состоянием.",
		}, []string{"to"}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "edits_total",
			Help:      "Изменения мира игроком.",
		}, []string{"op"}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "generation_seconds",
			Help:      "Длительность генерации мира.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		update: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "update_seconds",
			Help:      "Длительность прохода LOD за один тик.",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		respawns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "respawns_total",
			Help:      "Пересоздания мира после падения игрока за его пределы.",
		}),
	}

	reg.MustRegister(m.chunks, m.detailed, m.blocks, m.trees, m.lodTransitions,
		m.edits, m.generation, m.update, m.respawns)
	return m
}

// SetPopulation обновляет gauge-метрики размеров мира
func (m *WorldMetrics) SetPopulation(chunks, detailed, blocks, trees int) {
	if m == nil {
		return
	}
	m.chunks.Set(float64(chunks))
	m.detailed.Set(float64(detailed))
	m.blocks.Set(float64(blocks))
	m.trees.Set(float64(trees))
}

// LODTransition учитывает переход чанка в состояние to ("detailed" или "simplified")
func (m *WorldMetrics) LODTransition(to string) {
	if m == nil {
		return
	}
	m.lodTransitions.WithLabelValues(to).Inc()
}

// Edit учитывает операцию редактирования
func (m *WorldMetrics) Edit(op string) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(op).Inc()
}

// ObserveGeneration записывает длительность генерации мира
func (m *WorldMetrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.generation.Observe(d.Seconds())
}

// ObserveUpdate записывает длительность тика
func (m *WorldMetrics) ObserveUpdate(d time.Duration) {
	if m == nil {
		return
	}
	m.update.Observe(d.Seconds())
}

// Respawn учитывает пересоздание мира
func (m *WorldMetrics) Respawn() {
	if m == nil {
		return
	}
	m.respawns.Inc()
}
