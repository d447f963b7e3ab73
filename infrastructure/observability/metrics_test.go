package observability

import (
	"context"
	"testing"
	"time"

	"fairdice/config"
	"fairdice/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func enabledConfig() *config.Config {
	cfg := config.NewTestConfig()
	cfg.MetricsEnabled = true
	cfg.MetricsExporter = "console"
	return cfg
}

func TestMetricsProvider_RecordsSettlement(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProviderWithReader(enabledConfig(), reader)
	require.NoError(t, mp.Initialize(context.Background()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	ctx := context.Background()
	mp.RecordWagerSettled(ctx, &models.WagerOutcome{
		IsWin:  true,
		Stake:  decimal.NewFromInt(10),
		Payout: decimal.RequireFromString("19.00"),
	}, 12*time.Millisecond)
	mp.RecordWagerSettled(ctx, &models.WagerOutcome{
		Stake: decimal.NewFromInt(5),
	}, 3*time.Millisecond)
	mp.RecordSeedRotated(ctx)
	mp.RecordConflict(ctx, "settle_wager")

	metrics := collect(t, reader)

	settled, ok := metrics[WagersSettledTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range settled.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
	assert.Len(t, settled.DataPoints, 2, "win and loss are reported separately")

	payout, ok := metrics[WagersPayoutTotal].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, payout.DataPoints, 1)
	assert.InDelta(t, 19.0, payout.DataPoints[0].Value, 1e-9)

	duration, ok := metrics[SettleDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)

	rotated, ok := metrics[SeedsRotatedTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), rotated.DataPoints[0].Value)

	conflicts, ok := metrics[SettleConflicts].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, conflicts.DataPoints, 1)
	operation, _ := conflicts.DataPoints[0].Attributes.Value(LabelOperation)
	assert.Equal(t, "settle_wager", operation.AsString())
}

func TestMetricsProvider_Disabled(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.MetricsEnabled = false

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProviderWithReader(cfg, reader)
	require.NoError(t, mp.Initialize(context.Background()))

	assert.NotPanics(t, func() {
		mp.RecordWagerSettled(context.Background(), &models.WagerOutcome{}, time.Millisecond)
		mp.RecordSeedRotated(context.Background())
		mp.RecordConflict(context.Background(), "rotate_seed")
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_ExporterNone(t *testing.T) {
	cfg := enabledConfig()
	cfg.MetricsExporter = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := enabledConfig()
	cfg.MetricsExporter = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter type")
}
