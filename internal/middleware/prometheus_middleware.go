package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Служебные маршруты, которые не попадают в HTTP-метрики
var defaultSkipPaths = []string{"/metrics", "/health"}

// PrometheusMiddleware собирает HTTP-метрики админ-API.
// Запросы к миру ждут тика симуляции, поэтому гистограмма начинается с миллисекунды.
//
// Метрики:
//   - <service>_http_request_duration_seconds{method,path} - histogram
//   - <service>_http_requests_total{method,path,status} - counter
//   - <service>_http_requests_inflight - gauge
type PrometheusMiddleware struct {
	reqDuration *prometheus.HistogramVec
	reqTotal    *prometheus.CounterVec
	reqInflight prometheus.Gauge
	skip        map[string]bool
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов, включая ожидание тика симуляции.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 1, 5},
		}, []string{"method", "path"}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_requests_total",
			Help:      "Число обработанных HTTP-запросов по статусу.",
		}, []string{"method", "path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Текущее количество обрабатываемых HTTP-запросов.",
		}),
		skip: make(map[string]bool, len(defaultSkipPaths)),
	}
	for _, p := range defaultSkipPaths {
		pm.skip[p] = true
	}

	reg.MustRegister(pm.reqDuration, pm.reqTotal, pm.reqInflight)
	return pm
}

// Handler возвращает gin.HandlerFunc, которую нужно добавить через router.Use().
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if pm.skip[path] {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched" // не раздуваем кардинальность произвольными путями
		}

		start := time.Now()
		pm.reqInflight.Inc()
		defer pm.reqInflight.Dec()
		c.Next()

		method := c.Request.Method
		pm.reqDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		pm.reqTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics, отдающий метрики из gatherer.
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
