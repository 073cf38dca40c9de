package observability

import (
	"context"

	"ideascentral/internal/config"
	contextutils "ideascentral/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// DomainMetrics holds the counters the evaluation workflow reports
type DomainMetrics struct {
	evaluations  otelmetric.Int64Counter
	hookFailures otelmetric.Int64Counter
}

// NewDomainMetrics registers the workflow instruments on the given meter.
// A nil meter uses the global provider.
func NewDomainMetrics(meter otelmetric.Meter) (*DomainMetrics, error) {
	if meter == nil {
		meter = otel.Meter("ideascentral")
	}

	evaluations, err := meter.Int64Counter("ideas_evaluated_total",
		otelmetric.WithDescription("Evaluations recorded, by resulting idea status"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create evaluation counter: %w", err)
	}

	hookFailures, err := meter.Int64Counter("decision_hook_failures_total",
		otelmetric.WithDescription("Post-commit decision hooks that returned an error, by hook"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create hook failure counter: %w", err)
	}

	return &DomainMetrics{evaluations: evaluations, hookFailures: hookFailures}, nil
}

// RecordEvaluation counts one recorded evaluation
func (m *DomainMetrics) RecordEvaluation(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.evaluations.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", status)))
}

// RecordHookFailure counts one failed decision hook
func (m *DomainMetrics) RecordHookFailure(ctx context.Context, hook string) {
	if m == nil {
		return
	}
	m.hookFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("hook", hook)))
}
