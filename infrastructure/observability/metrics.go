package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fairdice/config"
	"fairdice/models"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for settlement. It satisfies service.Metrics.
type MetricsProvider struct {
	config        *config.Config
	reader        sdkmetric.Reader
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	wagersSettledCounter metric.Int64Counter
	stakeCounter         metric.Float64Counter
	payoutCounter        metric.Float64Counter
	settleDurationHist   metric.Float64Histogram
	seedsRotatedCounter  metric.Int64Counter
	conflictsCounter     metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// NewMetricsProviderWithReader creates a provider that reports to the given reader instead
// of the configured exporter
func NewMetricsProviderWithReader(cfg *config.Config, reader sdkmetric.Reader) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
		reader: reader,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.MetricsEnabled {
		log.Info("Metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName("fairdice"),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	reader := mp.reader
	if reader == nil {
		switch mp.config.MetricsExporter {
		case "console":
			exporter, err := stdoutmetric.New()
			if err != nil {
				return fmt.Errorf("failed to create console exporter: %w", err)
			}
			reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(mp.config.MetricsExportInterval))
			log.Info("Using console metric exporter")

		case "none":
			log.Info("Metrics export disabled (exporter='none')")
			mp.initialized = true
			return nil

		default:
			return fmt.Errorf("unknown exporter type: %s", mp.config.MetricsExporter)
		}
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("fairdice")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.wagersSettledCounter, err = mp.meter.Int64Counter(
		WagersSettledTotal,
		metric.WithDescription("Total number of settled wagers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create wagers settled counter: %w", err)
	}

	mp.stakeCounter, err = mp.meter.Float64Counter(
		WagersStakeTotal,
		metric.WithDescription("Sum of settled stakes"),
		metric.WithUnit("{credit}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stake counter: %w", err)
	}

	mp.payoutCounter, err = mp.meter.Float64Counter(
		WagersPayoutTotal,
		metric.WithDescription("Sum of payouts on winning wagers"),
		metric.WithUnit("{credit}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout counter: %w", err)
	}

	mp.settleDurationHist, err = mp.meter.Float64Histogram(
		SettleDuration,
		metric.WithDescription("Duration of wager settlement including lock wait and retries"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000),
	)
	if err != nil {
		return fmt.Errorf("failed to create settle duration histogram: %w", err)
	}

	mp.seedsRotatedCounter, err = mp.meter.Int64Counter(
		SeedsRotatedTotal,
		metric.WithDescription("Total number of seed pair rotations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create seeds rotated counter: %w", err)
	}

	mp.conflictsCounter, err = mp.meter.Int64Counter(
		SettleConflicts,
		metric.WithDescription("Total number of transaction conflicts inside the atomic region"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create conflicts counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordWagerSettled records a committed wager
func (mp *MetricsProvider) RecordWagerSettled(ctx context.Context, outcome *models.WagerOutcome, elapsed time.Duration) {
	if !mp.isEnabled() || outcome == nil {
		return
	}

	label := models.WagerOutcomeLoss
	if outcome.IsWin {
		label = models.WagerOutcomeWin
	}
	attrs := metric.WithAttributes(attribute.String(LabelOutcome, string(label)))

	mp.wagersSettledCounter.Add(ctx, 1, attrs)
	mp.stakeCounter.Add(ctx, outcome.Stake.InexactFloat64(), attrs)
	if outcome.IsWin {
		mp.payoutCounter.Add(ctx, outcome.Payout.InexactFloat64())
	}
	mp.settleDurationHist.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordSeedRotated records a seed rotation
func (mp *MetricsProvider) RecordSeedRotated(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.seedsRotatedCounter.Add(ctx, 1)
}

// RecordConflict records a retried or exhausted conflict
func (mp *MetricsProvider) RecordConflict(ctx context.Context, operation string) {
	if !mp.isEnabled() {
		return
	}
	mp.conflictsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelOperation, operation)))
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
