package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/sentinelsec/sentinel/pkg/idx"
)

// AuditService writes the append-only audit trail: login attempts and
// security events. It never reads credentials and never blocks a login on its
// own failures; callers decide whether an audit error is fatal.
type AuditService struct {
	Store   store.Store
	Metrics *telemetry.Metrics
}

// RecordAttempt appends one login-attempt record. Missing ID and timestamp
// are filled in.
func (s *AuditService) RecordAttempt(ctx context.Context, a domain.LoginAttempt) error {
	if a.ID == "" {
		a.ID = idx.New().String()
	}
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now().UTC()
	}
	return s.Store.LoginAttempts().Append(ctx, a)
}

// RecordEvent appends one security event and bumps the matching threat vector
// in the same transaction, keeping the vector count equal to the number of
// stored events of that type.
func (s *AuditService) RecordEvent(ctx context.Context, e domain.SecurityEvent) error {
	if !e.Severity.Valid() {
		return fmt.Errorf("record event: unknown severity %q", e.Severity)
	}
	if e.ID == "" {
		e.ID = idx.New().String()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SecurityEvents().Append(ctx, e); err != nil {
			return err
		}
		return tx.ThreatVectors().Upsert(ctx, e.EventType, e.Severity, e.OccurredAt)
	})
	if err != nil {
		return err
	}

	s.Metrics.IncSecurityEvent(e.EventType, string(e.Severity))
	return nil
}

// CountFailuresToday returns the number of failed attempts for the username
// since UTC midnight.
func (s *AuditService) CountFailuresToday(ctx context.Context, username string, now time.Time) (int, error) {
	midnight := now.UTC().Truncate(24 * time.Hour)
	return s.Store.LoginAttempts().CountFailuresSince(ctx, username, midnight)
}
