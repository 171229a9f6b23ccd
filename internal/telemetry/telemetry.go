package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter is returned for a TraceExporter value Init does not know.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// #region config
// Config selects where spans go.
type Config struct {
	ServiceName   string
	TraceExporter string // otlp, stdout or none
	OTLPEndpoint  string
	Writer        io.Writer // stdout exporter target; nil means os.Stdout
}
// #endregion config

// #region init
// Init installs the global TracerProvider. The returned shutdown flushes
// pending spans and must be called on exit. With TraceExporter "none" the
// global no-op provider is left in place.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.TraceExporter == "" || cfg.TraceExporter == "none" {
		return func(context.Context) error { return nil }, nil
	}

	var exporter trace.SpanExporter
	switch cfg.TraceExporter {
	case "otlp":
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	case "stdout":
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
		}
		exporter, err = stdouttrace.New(opts...)
	default:
		return nil, fmt.Errorf("init tracer: %w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes("", attribute.String("service.name", cfg.ServiceName))
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
// #endregion init
