package infrastructure

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"ashcli/internal/pipeline"
)

func TestInitializeOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, slog.Default())
	require.NoError(t, err)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{
		TraceExporter:  "jaeger",
		MetricExporter: "none",
	}, slog.Default())
	require.Error(t, err)
}

func TestMetricsObserverRecordsEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := CreateCollectorMetrics(mp.Meter(MeterName))
	require.NoError(t, err)

	obs := NewMetricsObserver(metrics)
	obs.EntityDone(pipeline.Event{Code: "sh.600000", Board: "MainBoard", Source: "eastmoney", Elapsed: 120 * time.Millisecond})
	obs.EntityDone(pipeline.Event{Code: "sh.688001", Board: "STAR", Error: "all sources exhausted", Elapsed: time.Second})

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))

	sums := make(map[string]int64)
	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				sums[m.Name] = total
			}
		}
	}
	assert.EqualValues(t, 2, sums["securities_collected_total"])
	assert.EqualValues(t, 1, sums["securities_placeholders_total"])
}
