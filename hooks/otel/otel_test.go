package otelhook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// sumOf returns the value of the data point of metric name whose attributes
// include want, or -1 when there is none.
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string, want ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
		points:
			for _, dp := range sum.DataPoints {
				for _, kv := range want {
					v, ok := dp.Attributes.Value(kv.Key)
					if !ok || v != kv.Value {
						continue points
					}
				}
				return dp.Value
			}
		}
	}
	return -1
}

func TestCountersRecordEvents(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	h, err := New(mp, "pages")
	require.NoError(t, err)

	h.Hit("k")
	h.Hit("k")
	h.Miss("k")
	h.Superseded("k")
	h.StaleWriteRejected("k")
	h.SelfHealed("k", "value_decode")
	h.Swept(5)
	h.Swept(0)

	cache := attribute.String("cache", "pages")
	assert.Equal(t, int64(2), sumOf(t, reader, metricLookups, cache, attribute.String("result", "hit")))
	assert.Equal(t, int64(1), sumOf(t, reader, metricLookups, cache, attribute.String("result", "miss")))
	assert.Equal(t, int64(1), sumOf(t, reader, metricSuperseded, cache))
	assert.Equal(t, int64(1), sumOf(t, reader, metricStaleWrites, cache))
	assert.Equal(t, int64(1), sumOf(t, reader, metricSelfHealed, cache, attribute.String("reason", "value_decode")))
	assert.Equal(t, int64(5), sumOf(t, reader, metricSwept, cache))
	assert.Equal(t, int64(-1), sumOf(t, reader, metricCoalesced, cache))
}

func TestNilProviderUsesGlobal(t *testing.T) {
	h, err := New(nil, "pages")
	require.NoError(t, err)
	h.Hit("k") // global no-op provider; must not panic
}
