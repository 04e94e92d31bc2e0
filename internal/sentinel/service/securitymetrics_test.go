package service

import (
	"context"
	"testing"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/stretchr/testify/require"
)

func newMetricsService(t *testing.T) (*SecurityMetricsService, context.Context) {
	t.Helper()

	st := newTestStore(t)
	svc := &SecurityMetricsService{
		Store:   st,
		Latency: telemetry.NewLatencyTracker(10, 50, 2400, nil),
	}
	return svc, context.Background()
}

func TestSummaryEmpty(t *testing.T) {
	svc, ctx := newMetricsService(t)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Zero(t, summary.TotalRequests)
	require.Zero(t, summary.BlockRate)
	require.Equal(t, NoThreatDetected, summary.TopThreatVector)
	require.Empty(t, summary.ThreatVectors)
}

func TestRecordThreatAggregation(t *testing.T) {
	svc, ctx := newMetricsService(t)

	report := func(threatType string, severity domain.Severity, blocked bool) {
		t.Helper()
		require.NoError(t, svc.RecordThreat(ctx, ThreatReport{
			ThreatType: threatType,
			Severity:   severity,
			Blocked:    blocked,
		}))
	}

	report("DAN Attack", domain.SeverityCritical, true)
	report("DAN Attack", domain.SeverityCritical, true)
	report("Jailbreak", domain.SeverityHigh, true)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), summary.TotalRequests)
	require.Equal(t, int64(3), summary.ThreatsBlocked)
	require.Zero(t, summary.ThreatsFlagged)
	require.InDelta(t, 100.0, summary.BlockRate, 0.001)
	require.Equal(t, "DAN Attack", summary.TopThreatVector)
	require.Len(t, summary.ThreatVectors, 2)
	require.Equal(t, int64(2), summary.ThreatVectors[0].Count)

	// Vector counts always match the stored events of that type.
	events, err := svc.Store.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	t.Run("flagged threats and clean requests dilute the rate", func(t *testing.T) {
		report("Prompt Injection", domain.SeverityMedium, false)
		require.NoError(t, svc.RecordCleanRequest(ctx))

		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(5), summary.TotalRequests)
		require.Equal(t, int64(3), summary.ThreatsBlocked)
		require.Equal(t, int64(1), summary.ThreatsFlagged)
		require.InDelta(t, 60.0, summary.BlockRate, 0.001)
	})

	t.Run("severity reflects the latest observation", func(t *testing.T) {
		report("DAN Attack", domain.SeverityLow, true)

		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.SeverityLow, summary.ThreatVectors[0].Severity)
		require.Equal(t, int64(3), summary.ThreatVectors[0].Count)
	})
}

func TestRecordThreatValidation(t *testing.T) {
	svc, ctx := newMetricsService(t)

	err := svc.RecordThreat(ctx, ThreatReport{ThreatType: "", Severity: domain.SeverityLow})
	require.ErrorIs(t, err, ErrEmptyThreatType)

	err = svc.RecordThreat(ctx, ThreatReport{ThreatType: "DAN Attack", Severity: "catastrophic"})
	require.ErrorIs(t, err, ErrUnknownSeverity)

	// Nothing may persist from rejected reports.
	summary, sumErr := svc.Summary(ctx)
	require.NoError(t, sumErr)
	require.Zero(t, summary.TotalRequests)
}

func TestMetricsReset(t *testing.T) {
	svc, ctx := newMetricsService(t)

	require.NoError(t, svc.RecordThreat(ctx, ThreatReport{
		ThreatType: "DAN Attack",
		Severity:   domain.SeverityCritical,
		Blocked:    true,
	}))
	svc.Latency.Record(30)

	require.NoError(t, svc.Reset(ctx))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Zero(t, summary.TotalRequests)
	require.Zero(t, summary.ThreatsBlocked)
	require.Equal(t, NoThreatDetected, summary.TopThreatVector)
	require.Empty(t, summary.ThreatVectors)

	events, err := svc.Store.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)

	require.Zero(t, svc.Latency.Snapshot().TotalRequests)
}
