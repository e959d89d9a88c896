package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/thistle/internal/tracing/exporters"
)

// Provider owns the SDK tracer provider for the process.
type Provider struct {
	name     string
	enabled  bool
	config   exporters.OTLPConfig
	provider *sdktrace.TracerProvider
}

func NewProvider(name string, enabled bool, config exporters.OTLPConfig) *Provider {
	return &Provider{name: name, enabled: enabled, config: config}
}

func (p *Provider) GetName() string {
	return "tracing"
}

func (p *Provider) DependsOn() []string {
	return nil
}

// Start installs the global tracer. Spans are only exported when OTLP is enabled.
func (p *Provider) Start(ctx context.Context) error {
	opts := []sdktrace.TracerProviderOption{}
	if p.enabled {
		exporter, err := exporters.NewOTLPExporter(ctx, p.config)
		if err != nil {
			return err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	p.provider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(p.provider.Tracer(p.name))
	return nil
}

func (p *Provider) Stop(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
