package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
)

type loginAttemptsRepo struct {
	q dbtx
}

func (r *loginAttemptsRepo) Append(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO login_attempts
		   (id, user_id, username, attempted_at, source_ip, user_agent, succeeded, failure_reason, session_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, mapOptionalString(a.UserID), a.Username, a.AttemptedAt.UTC(), a.SourceIP,
		mapOptionalString(a.UserAgent), a.Succeeded,
		mapOptionalString(a.FailureReason), mapOptionalString(a.SessionID))
	return err
}

func (r *loginAttemptsRepo) CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM login_attempts
		 WHERE username = ? AND succeeded = 0 AND attempted_at >= ?`,
		username, since.UTC()).Scan(&count)
	return count, err
}

func (r *loginAttemptsRepo) ListRecent(ctx context.Context, limit int) ([]domain.LoginAttempt, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, username, attempted_at, source_ip, user_agent, succeeded, failure_reason, session_id
		 FROM login_attempts ORDER BY attempted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LoginAttempt
	for rows.Next() {
		var (
			a                                           domain.LoginAttempt
			userID, userAgent, failureReason, sessionID sql.NullString
		)
		if err := rows.Scan(&a.ID, &userID, &a.Username, &a.AttemptedAt, &a.SourceIP,
			&userAgent, &a.Succeeded, &failureReason, &sessionID); err != nil {
			return nil, err
		}
		a.UserID = mapNullStringPtr(userID)
		a.UserAgent = mapNullStringPtr(userAgent)
		a.FailureReason = mapNullStringPtr(failureReason)
		a.SessionID = mapNullStringPtr(sessionID)
		out = append(out, a)
	}
	return out, rows.Err()
}
