package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ProviderConfig controls the OTLP exporter the pipeline reports spans to.
type ProviderConfig struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

// InitProvider builds an OTLP/gRPC tracer provider and installs it via
// SetTracer, mirroring the exporter construction the teacher stack's
// tracing package uses. When cfg.Enabled is false it installs nothing,
// leaving StartSpan a no-op, which is what every unit test relies on.
// The returned shutdown func flushes buffered spans; call it on exit.
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newGRPCExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	SetTracer(provider.Tracer("monarch-phenology"))

	return provider.Shutdown, nil
}

func newGRPCExporter(ctx context.Context, cfg ProviderConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		)
	}
	return otlptracegrpc.New(ctx, opts...)
}
