package observability

import (
	"context"
	"errors"
	"os"

	"ideascentral/internal/config"

	autosdk "go.opentelemetry.io/auto/sdk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// SetupObservability initializes tracing, metrics, and logging for a service. The returned
// providers are nil for the signals that are disabled; pass them to ShutdownProviders on exit.
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName string) (result0 trace.TracerProvider, result1 *metric.MeterProvider, result2 *Logger, err error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	for key, value := range map[string]string{
		"OTEL_SERVICE_NAME":    cfg.ServiceName,
		"OTEL_SERVICE_VERSION": cfg.ServiceVersion,
	} {
		if err := os.Setenv(key, value); err != nil {
			return nil, nil, nil, err
		}
	}

	logger := NewLogger(cfg)
	ctx := context.Background()

	var tp trace.TracerProvider
	if cfg.EnableTracing {
		sdk := "standard"
		if cfg.UseAutoSDK {
			tp = autosdk.TracerProvider()
			sdk = "auto"
		} else {
			sdkTP, err := InitStandardTracing(cfg)
			if err != nil {
				return nil, nil, logger, err
			}
			tp = sdkTP
		}
		otel.SetTracerProvider(tp)
		InitPropagation()
		InitGlobalTracer()
		logger.Info(ctx, "Tracing enabled", map[string]interface{}{"service_name": cfg.ServiceName, "sdk": sdk})
	}

	var mp *metric.MeterProvider
	if cfg.EnableMetrics {
		mp, err = InitMetrics(cfg)
		if err != nil {
			return tp, nil, logger, err
		}
		otel.SetMeterProvider(mp)
		logger.Info(ctx, "Metrics enabled", map[string]interface{}{"protocol": cfg.Protocol})
	}

	return tp, mp, logger, nil
}

// ShutdownProviders flushes and stops the providers returned by SetupObservability.
// Tracer providers without a Shutdown method, such as the auto SDK, are skipped.
func ShutdownProviders(ctx context.Context, tp trace.TracerProvider, mp *metric.MeterProvider) error {
	var errs []error
	if s, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
