package sqlite

import (
	"context"
	"database/sql"

	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
)

type threatVectorsRepo struct {
	q dbtx
}

// Upsert increments an existing vector or seeds it at count=1. Severity and
// last_detected_at always reflect the latest observation.
func (r *threatVectorsRepo) Upsert(ctx context.Context, threatType string, severity domain.Severity, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO threat_vectors (threat_type, count, severity, last_detected_at)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(threat_type) DO UPDATE SET
		   count = count + 1,
		   severity = excluded.severity,
		   last_detected_at = excluded.last_detected_at`,
		threatType, string(severity), at.UTC())
	return err
}

// ListByCount ranks by count descending with a lexicographic tie-break on
// threat_type so the "top threat" answer is deterministic.
func (r *threatVectorsRepo) ListByCount(ctx context.Context, limit int) ([]domain.ThreatVector, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT threat_type, count, severity, last_detected_at
		 FROM threat_vectors ORDER BY count DESC, threat_type ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ThreatVector
	for rows.Next() {
		var (
			v            domain.ThreatVector
			severity     string
			lastDetected sql.NullTime
		)
		if err := rows.Scan(&v.ThreatType, &v.Count, &severity, &lastDetected); err != nil {
			return nil, err
		}
		v.Severity = domain.Severity(severity)
		v.LastDetectedAt = mapNullTimePtr(lastDetected)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *threatVectorsRepo) DeleteAll(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM threat_vectors`)
	return err
}
