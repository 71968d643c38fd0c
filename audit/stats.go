package audit

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	AuditStatsName = "xds/audit"
)

type auditStats struct {
	trialCount      metric.Int64Counter
	violationCount  metric.Int64Counter
	trialDurationMs metric.Int64Histogram
}

func (stats *auditStats) RecordTrial(ctx context.Context, kind string, durationMs int64, failed bool) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(
		attribute.String("xds.audit.kind", kind),
	)
	stats.trialCount.Add(ctx, 1, metric.WithAttributeSet(as))
	if failed {
		stats.violationCount.Add(ctx, 1, metric.WithAttributeSet(as))
	}
	stats.trialDurationMs.Record(ctx, durationMs, metric.WithAttributeSet(as))
}

func newAuditStats(mp metric.MeterProvider) *auditStats {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(AuditStatsName)
	return &auditStats{
		trialCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xds.audit.trials",
			metric.WithDescription(`The audit trials have been run.`),
		)),
		violationCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xds.audit.violations",
			metric.WithDescription(`The audit trials have failed.`),
		)),
		trialDurationMs: lo.Must[metric.Int64Histogram](meter.Int64Histogram(
			"xds.audit.trial.duration.ms",
			metric.WithDescription(`The audit trial duration in milliseconds.`),
			metric.WithUnit("ms"),
		)),
	}
}
