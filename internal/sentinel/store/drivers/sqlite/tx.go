package sqlite

import (
	"context"
	"database/sql"

	"github.com/sentinelsec/sentinel/internal/sentinel/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits or rolls back

// Ping is a no-op inside a transaction; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts

func (t *txStore) Users() store.Users                   { return &usersRepo{q: t.tx} }
func (t *txStore) LoginAttempts() store.LoginAttempts   { return &loginAttemptsRepo{q: t.tx} }
func (t *txStore) SecurityEvents() store.SecurityEvents { return &securityEventsRepo{q: t.tx} }
func (t *txStore) ThreatVectors() store.ThreatVectors   { return &threatVectorsRepo{q: t.tx} }
func (t *txStore) RequestMetrics() store.RequestMetrics { return &requestMetricsRepo{q: t.tx} }
