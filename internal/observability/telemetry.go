package observability

import (
	"context"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc завершает работу трассировки
type ShutdownFunc func(context.Context) error

// Options параметры телеметрии
type Options struct {
	Enabled     bool
	ServiceName string
	Version     string
	Endpoint    string  // host:port OTLP HTTP; пусто - OTEL_EXPORTER_OTLP_ENDPOINT или localhost:4318
	Insecure    bool    // без TLS
	SampleRatio float64 // доля трассируемых запросов; <=0 или >=1 - все
}

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
// При выключенной телеметрии глобальный провайдер не меняется (no-op трейсер).
func InitTelemetry(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		logging.Debug("Телеметрия отключена")
		return func(context.Context) error { return nil }, nil
	}

	var exporterOpts []otlptracehttp.Option
	if opts.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, opts)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(sampler(opts.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (service=%s, endpoint=%s)", opts.ServiceName, endpointName(opts.Endpoint))

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

func newResource(ctx context.Context, opts Options) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	}
	if opts.Version != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(opts.Version)))
	}
	return resource.New(ctx, attrs...)
}

func sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.AlwaysSample()
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func endpointName(endpoint string) string {
	if endpoint == "" {
		return "default"
	}
	return endpoint
}
