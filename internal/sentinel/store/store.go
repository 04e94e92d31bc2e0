// Package store defines the data access interfaces for the authentication and
// telemetry engine. Concrete drivers (sqlite) implement Store; services only
// ever see these interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. It exposes sub-repositories to
// keep concerns tidy and testable.
type Store interface {
	Users() Users
	LoginAttempts() LoginAttempts
	SecurityEvents() SecurityEvents
	ThreatVectors() ThreatVectors
	RequestMetrics() RequestMetrics

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks a user up by exact, case-sensitive username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateLastLogin stamps last_login_at after a successful authentication.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetActive flips the is_active flag.
	SetActive(ctx context.Context, userID string, active bool) error
}

type LoginAttempts interface {
	// Append writes one immutable login-attempt record.
	Append(ctx context.Context, a domain.LoginAttempt) error

	// CountFailuresSince counts failed attempts for the exact username with
	// attempted_at >= since. Used by the brute-force heuristic.
	CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error)

	// ListRecent returns the newest attempts first, up to limit.
	ListRecent(ctx context.Context, limit int) ([]domain.LoginAttempt, error)
}

type SecurityEvents interface {
	// Append writes one immutable security-event record.
	Append(ctx context.Context, e domain.SecurityEvent) error

	// ListRecent returns the newest events first, up to limit.
	ListRecent(ctx context.Context, limit int) ([]domain.SecurityEvent, error)

	// DeleteAll removes every event. Only the metrics reset path calls this.
	DeleteAll(ctx context.Context) error
}

type ThreatVectors interface {
	// Upsert inserts the vector with count=1 on first detection, otherwise
	// increments count and overwrites severity and last_detected_at with the
	// latest observation.
	Upsert(ctx context.Context, threatType string, severity domain.Severity, at time.Time) error

	// ListByCount returns vectors ranked by count descending; ties break
	// lexicographically by threat_type.
	ListByCount(ctx context.Context, limit int) ([]domain.ThreatVector, error)

	// DeleteAll removes every vector. Only the metrics reset path calls this.
	DeleteAll(ctx context.Context) error
}

type RequestMetrics interface {
	// Get returns the singleton counter row.
	Get(ctx context.Context) (domain.RequestMetrics, error)

	// IncrementTotal bumps total_requests by one.
	IncrementTotal(ctx context.Context, at time.Time) error

	// IncrementBlocked bumps threats_blocked by one.
	IncrementBlocked(ctx context.Context, at time.Time) error

	// IncrementFlagged bumps threats_flagged by one.
	IncrementFlagged(ctx context.Context, at time.Time) error

	// Reset zeroes all counters.
	Reset(ctx context.Context, at time.Time) error
}
