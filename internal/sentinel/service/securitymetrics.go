package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/sentinelsec/sentinel/pkg/idx"
)

// NoThreatDetected is the top-vector placeholder before any threat is seen.
const NoThreatDetected = "None detected"

// summaryVectorLimit caps the ranked vector list in a summary.
const summaryVectorLimit = 10

var (
	ErrEmptyThreatType = errors.New("empty_threat_type")
	ErrUnknownSeverity = errors.New("unknown_severity")
)

// ThreatReport is one detection observation handed to RecordThreat.
type ThreatReport struct {
	ThreatType  string
	Severity    domain.Severity
	Blocked     bool
	Description string
	SourceIP    *string
}

// SecuritySummary is the aggregate view over counters and threat vectors.
type SecuritySummary struct {
	TotalRequests   int64                 `json:"total_requests"`
	ThreatsBlocked  int64                 `json:"threats_blocked"`
	ThreatsFlagged  int64                 `json:"threats_flagged"`
	BlockRate       float64               `json:"block_rate"`
	TopThreatVector string                `json:"top_threat_vector"`
	ThreatVectors   []domain.ThreatVector `json:"threat_vectors"`
	LastUpdatedAt   time.Time             `json:"last_updated_at"`
}

// SecurityMetricsService aggregates threat detections into durable counters
// and per-type vectors. A single mutex serializes the write paths so
// concurrent detections cannot interleave their transactions.
type SecurityMetricsService struct {
	Store   store.Store
	Latency *telemetry.LatencyTracker
	Metrics *telemetry.Metrics

	mu sync.Mutex
}

// RecordThreat persists one detection: the security event, the threat-vector
// bump, and the request counters move in a single transaction. Vector severity
// and last-detected always reflect this latest observation, even when a
// previous observation was more severe.
func (s *SecurityMetricsService) RecordThreat(ctx context.Context, r ThreatReport) error {
	if r.ThreatType == "" {
		return ErrEmptyThreatType
	}
	if !r.Severity.Valid() {
		return ErrUnknownSeverity
	}

	now := time.Now().UTC()
	desc := r.Description
	if desc == "" {
		desc = fmt.Sprintf("Threat detected: %s", r.ThreatType)
	}
	blocked := r.Blocked
	event := domain.SecurityEvent{
		ID:          idx.New().String(),
		EventType:   r.ThreatType,
		Severity:    r.Severity,
		Description: desc,
		SourceIP:    r.SourceIP,
		OccurredAt:  now,
		Metadata:    domain.EventMetadata{Blocked: &blocked},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SecurityEvents().Append(ctx, event); err != nil {
			return err
		}
		if err := tx.ThreatVectors().Upsert(ctx, r.ThreatType, r.Severity, now); err != nil {
			return err
		}
		if err := tx.RequestMetrics().IncrementTotal(ctx, now); err != nil {
			return err
		}
		if blocked {
			return tx.RequestMetrics().IncrementBlocked(ctx, now)
		}
		return tx.RequestMetrics().IncrementFlagged(ctx, now)
	})
	if err != nil {
		return err
	}

	s.Metrics.IncThreat(r.ThreatType)
	s.Metrics.IncSecurityEvent(event.EventType, string(event.Severity))
	return nil
}

// RecordCleanRequest counts a request that passed all security checks.
func (s *SecurityMetricsService) RecordCleanRequest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Store.RequestMetrics().IncrementTotal(ctx, time.Now().UTC())
}

// Summary computes the aggregate security view. The block rate uses a
// max(total, 1) denominator so an empty tracker reports 0 rather than NaN.
func (s *SecurityMetricsService) Summary(ctx context.Context) (SecuritySummary, error) {
	counters, err := s.Store.RequestMetrics().Get(ctx)
	if err != nil {
		return SecuritySummary{}, err
	}

	vectors, err := s.Store.ThreatVectors().ListByCount(ctx, summaryVectorLimit)
	if err != nil {
		return SecuritySummary{}, err
	}

	top := NoThreatDetected
	if len(vectors) > 0 {
		top = vectors[0].ThreatType
	}

	denom := counters.TotalRequests
	if denom < 1 {
		denom = 1
	}
	rate := float64(counters.ThreatsBlocked) / float64(denom) * 100.0

	return SecuritySummary{
		TotalRequests:   counters.TotalRequests,
		ThreatsBlocked:  counters.ThreatsBlocked,
		ThreatsFlagged:  counters.ThreatsFlagged,
		BlockRate:       math.Round(rate*100) / 100,
		TopThreatVector: top,
		ThreatVectors:   vectors,
		LastUpdatedAt:   counters.LastUpdatedAt,
	}, nil
}

// Reset zeroes the counters and drops all vectors and events, then clears the
// latency window.
func (s *SecurityMetricsService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SecurityEvents().DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.ThreatVectors().DeleteAll(ctx); err != nil {
			return err
		}
		return tx.RequestMetrics().Reset(ctx, now)
	})
	if err != nil {
		return err
	}

	if s.Latency != nil {
		s.Latency.Reset()
	}
	return nil
}
