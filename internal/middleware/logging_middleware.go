package middleware

import (
	"net/http"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Ключи gin.Context, которые заполняют middleware админ-API
const (
	TraceIDKey = "trace_id"
	SubjectKey = "admin_subject"
)

// TraceIDHeader заголовок ответа с trace-ID запроса
const TraceIDHeader = "X-Trace-Id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Чтение мира (GET) пишется на DEBUG: клиенты опрашивают /api/events и /api/world постоянно.
// Изменения мира пишутся на INFO вместе с subject токена, ответы 5xx на WARN.
type RequestLogger struct {
	logger *logging.Logger
}

// NewRequestLogger создаёт middleware; nil означает логгер компонента "http"
func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.GetComponentLogger("http")
	}
	return &RequestLogger{logger: logger}
}

// TraceID возвращает trace-ID текущего запроса или пустую строку
func TraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если otelgin уже открыл span
		traceID := uuid.NewString()
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		start := time.Now()
		c.Next()

		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		latency := time.Since(start).Round(time.Microsecond)

		switch {
		case status >= http.StatusInternalServerError:
			rl.logger.Warn("[HTTP] %s %s %d %s trace=%s errors=%s", method, path, status, latency, traceID, c.Errors.String())
		case method == http.MethodGet || method == http.MethodHead:
			rl.logger.Debug("[HTTP] %s %s %d %s trace=%s", method, path, status, latency, traceID)
		default:
			subject := c.GetString(SubjectKey)
			if subject == "" {
				subject = "-"
			}
			rl.logger.Info("[HTTP] %s %s %d %s subject=%s ip=%s trace=%s", method, path, status, latency, subject, c.ClientIP(), traceID)
		}
	}
}
