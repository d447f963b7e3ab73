package service

import (
	"context"
	"time"

	"fairdice/models"
)

// NoopMetrics discards all telemetry
type NoopMetrics struct{}

func (NoopMetrics) RecordWagerSettled(context.Context, *models.WagerOutcome, time.Duration) {}
func (NoopMetrics) RecordSeedRotated(context.Context)                                     {}
func (NoopMetrics) RecordConflict(context.Context, string)                                {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return NoopMetrics{}
	}
	return m
}
