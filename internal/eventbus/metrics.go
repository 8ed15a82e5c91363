package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics публикует счётчики шины в реестре Prometheus.
// Значения читаются из Stats при каждом сборе, фоновый цикл не нужен.
func RegisterMetrics(reg prometheus.Registerer, bus EventBus) error {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}, func() float64 { return float64(bus.Metrics().Published) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}, func() float64 { return float64(bus.Metrics().Consumed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ограничения back-pressure.",
		}, func() float64 { return float64(bus.Metrics().Dropped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
		}, func() float64 { return float64(bus.Metrics().InFlight) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
