package observability

import (
	"context"
	"errors"
	"testing"

	"ideascentral/internal/config"
	contextutils "ideascentral/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupObservability_NoneEnabled(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{ServiceName: "test-service", Protocol: "grpc", Endpoint: "localhost:4317"}

	tp, mp, logger, err := SetupObservability(cfg, "test-service")
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.Nil(t, mp)
	require.NotNil(t, logger)
}

func TestSetupObservability_AutoSDK(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{EnableTracing: true, UseAutoSDK: true, ServiceName: "svc"}

	tp, _, _, err := SetupObservability(cfg, "")
	require.NoError(t, err)
	require.NotNil(t, tp)
	_, isSDK := tp.(*sdktrace.TracerProvider)
	assert.False(t, isSDK)
}

func TestShutdownProviders(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ShutdownProviders(ctx, nil, nil))

	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	assert.NoError(t, ShutdownProviders(ctx, tp, mp))
}

func TestInitStandardTracing_Protocols(t *testing.T) {
	for _, protocol := range []string{"grpc", "http"} {
		cfg := &config.OpenTelemetryConfig{Protocol: protocol, Endpoint: "localhost:4317", Insecure: true, SamplingRate: 1}
		tp, err := InitStandardTracing(cfg)
		require.NoError(t, err, protocol)
		require.NotNil(t, tp)
		_ = tp.Shutdown(context.Background())
	}
}

func TestInitStandardTracing_InvalidProtocol(t *testing.T) {
	_, err := InitStandardTracing(&config.OpenTelemetryConfig{Protocol: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestInitMetrics_InvalidProtocol(t *testing.T) {
	_, err := InitMetrics(&config.OpenTelemetryConfig{Protocol: "smoke-signal"})
	assert.Error(t, err)
}

func TestFinishSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	func() (err error) {
		_, span := tracer.Start(context.Background(), "store.UpdateIdea")
		defer FinishSpan(span, &err)
		return errors.New("version mismatch")
	}()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "version mismatch", spans[0].Status().Description)
}

func TestFinishSpan_TagsAppErrorCode(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	func() (err error) {
		_, span := tracer.Start(context.Background(), "records.RecordDecision")
		defer FinishSpan(span, &err)
		return contextutils.WrapError(contextutils.ErrConflict, "idea changed underneath")
	}()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, string(contextutils.ErrorCodeConflict), attrs["error.code"])
	assert.NotEmpty(t, attrs["error.severity"])
}

func TestFinishSpan_NoErrorLeavesStatusUnset(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	func() (err error) {
		_, span := tracer.Start(context.Background(), "records.GetIdea")
		defer FinishSpan(span, &err)
		return nil
	}()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	FinishSpan(nil, nil)
}

func TestDomainMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewDomainMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEvaluation(ctx, "approved")
	m.RecordEvaluation(ctx, "approved")
	m.RecordEvaluation(ctx, "rejected")
	m.RecordHookFailure(ctx, "email")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				totals[metric.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), totals["ideas_evaluated_total"])
	assert.Equal(t, int64(1), totals["decision_hook_failures_total"])
}

func TestDomainMetrics_NilIsSafe(t *testing.T) {
	var m *DomainMetrics
	m.RecordEvaluation(context.Background(), "approved")
	m.RecordHookFailure(context.Background(), "email")
}
