package sqlite

import (
	"context"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
)

// request_metrics is a singleton row (id=1), seeded by the initial migration.
type requestMetricsRepo struct {
	q dbtx
}

func (r *requestMetricsRepo) Get(ctx context.Context) (domain.RequestMetrics, error) {
	var m domain.RequestMetrics
	err := r.q.QueryRowContext(ctx,
		`SELECT total_requests, threats_blocked, threats_flagged, last_updated_at
		 FROM request_metrics WHERE id = 1`).
		Scan(&m.TotalRequests, &m.ThreatsBlocked, &m.ThreatsFlagged, &m.LastUpdatedAt)
	if err != nil {
		return domain.RequestMetrics{}, mapNotFound(err)
	}
	return m, nil
}

func (r *requestMetricsRepo) IncrementTotal(ctx context.Context, at time.Time) error {
	return r.bump(ctx, `total_requests`, at)
}

func (r *requestMetricsRepo) IncrementBlocked(ctx context.Context, at time.Time) error {
	return r.bump(ctx, `threats_blocked`, at)
}

func (r *requestMetricsRepo) IncrementFlagged(ctx context.Context, at time.Time) error {
	return r.bump(ctx, `threats_flagged`, at)
}

func (r *requestMetricsRepo) Reset(ctx context.Context, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE request_metrics
		 SET total_requests = 0, threats_blocked = 0, threats_flagged = 0, last_updated_at = ?
		 WHERE id = 1`, at.UTC())
	return err
}

func (r *requestMetricsRepo) bump(ctx context.Context, column string, at time.Time) error {
	// column comes from the three increment methods above, never from input.
	_, err := r.q.ExecContext(ctx,
		`UPDATE request_metrics SET `+column+` = `+column+` + 1, last_updated_at = ? WHERE id = 1`,
		at.UTC())
	return err
}
