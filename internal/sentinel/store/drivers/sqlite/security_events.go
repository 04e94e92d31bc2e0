package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
)

type securityEventsRepo struct {
	q dbtx
}

func (r *securityEventsRepo) Append(ctx context.Context, e domain.SecurityEvent) error {
	metadata := sql.NullString{}
	if !e.Metadata.IsZero() {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("sqlite: marshal event metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO security_events
		   (id, event_type, severity, description, triggered_by, source_ip, user_agent, occurred_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EventType, string(e.Severity), e.Description,
		mapOptionalString(e.TriggeredBy), mapOptionalString(e.SourceIP),
		mapOptionalString(e.UserAgent), e.OccurredAt.UTC(), metadata)
	return err
}

func (r *securityEventsRepo) ListRecent(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, event_type, severity, description, triggered_by, source_ip, user_agent, occurred_at, metadata
		 FROM security_events ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SecurityEvent
	for rows.Next() {
		var (
			e                                domain.SecurityEvent
			severity                         string
			triggeredBy, sourceIP, userAgent sql.NullString
			metadata                         sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EventType, &severity, &e.Description,
			&triggeredBy, &sourceIP, &userAgent, &e.OccurredAt, &metadata); err != nil {
			return nil, err
		}
		e.Severity = domain.Severity(severity)
		e.TriggeredBy = mapNullStringPtr(triggeredBy)
		e.SourceIP = mapNullStringPtr(sourceIP)
		e.UserAgent = mapNullStringPtr(userAgent)
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal event metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *securityEventsRepo) DeleteAll(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM security_events`)
	return err
}
