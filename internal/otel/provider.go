// Package otel wires the OpenTelemetry log pipeline and hands out meters for
// engine counters. A disabled provider is valid and does nothing.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoSink is returned when OTel is enabled with neither a writer nor an endpoint.
var ErrNoSink = errors.New("otel enabled but no log writer or endpoint configured")

// Config holds OTel configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration
	LogWriter      io.Writer // pretty-printed records, usually a file next to the text log
	Endpoint       string    // OTLP/HTTP endpoint, skipped when empty
	Insecure       bool
}

// Provider owns the log pipeline of one process
type Provider struct {
	enabled bool
	logs    *sdklog.LoggerProvider
}

// New builds the log pipeline described by cfg.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	ctx := context.Background()
	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	processors, err := logProcessors(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := make([]sdklog.LoggerProviderOption, 0, len(processors)+1)
	opts = append(opts, sdklog.WithResource(res))
	for _, p := range processors {
		opts = append(opts, sdklog.WithProcessor(p))
	}
	return &Provider{enabled: true, logs: sdklog.NewLoggerProvider(opts...)}, nil
}

func logProcessors(ctx context.Context, cfg Config) ([]sdklog.Processor, error) {
	batch := func(e sdklog.Exporter) sdklog.Processor {
		if cfg.BatchTimeout > 0 {
			return sdklog.NewBatchProcessor(e, sdklog.WithExportTimeout(cfg.BatchTimeout))
		}
		return sdklog.NewBatchProcessor(e)
	}

	var out []sdklog.Processor
	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating writer log exporter: %w", err)
		}
		out = append(out, batch(exp))
	}
	if cfg.Endpoint != "" {
		httpOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			httpOpts = append(httpOpts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP log exporter: %w", err)
		}
		out = append(out, batch(exp))
	}
	if len(out) == 0 {
		return nil, ErrNoSink
	}
	return out, nil
}

// LoggerProvider feeds the otelslog bridge. It is nil when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logs
}

// Meter returns a meter from the global provider when enabled, or a no-op
// meter otherwise. Engine counters are created from it.
func (p *Provider) Meter(name string) metric.Meter {
	if !p.enabled {
		return noop.Meter{}
	}
	return otel.GetMeterProvider().Meter(name)
}

// Flush pushes buffered records, typically at episode end.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logs == nil {
		return nil
	}
	if err := p.logs.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flushing otel logs: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the pipeline. It is safe on a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logs == nil {
		return nil
	}
	if err := p.logs.Shutdown(ctx); err != nil {
		return fmt.Errorf("stopping otel logs: %w", err)
	}
	return nil
}

func (p *Provider) Enabled() bool { return p.enabled }
