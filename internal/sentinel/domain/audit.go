package domain

import "time"

// Failure reasons recorded on login attempts. Recorded verbatim in the audit
// trail; the caller-visible rejection stays generic.
const (
	FailureUserNotFound    = "User not found"
	FailureAccountInactive = "Account inactive"
	FailureInvalidPassword = "Invalid password"
)

// LoginAttempt is one append-only audit record per authentication attempt.
// UserID is nil when the attempted username does not exist.
type LoginAttempt struct {
	ID            string
	UserID        *string
	Username      string
	AttemptedAt   time.Time
	SourceIP      string
	UserAgent     *string
	Succeeded     bool
	FailureReason *string
	SessionID     *string
}

// Severity levels for security events, ordered low to critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the recognized severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Event types emitted by the authentication flows.
const (
	EventSuspiciousLogin   = "suspicious_login"
	EventBruteForceAttempt = "brute_force_attempt"
	EventInvalidToken      = "invalid_token"
	EventUnusualActivity   = "unusual_activity"
)

// EventMetadata carries the structured context of a security event. Known
// shapes get typed fields; anything genuinely unstructured goes in Extra.
type EventMetadata struct {
	// FailedAttempts is set on brute_force_attempt events: the number of
	// failed logins for the username so far today, including the triggering one.
	FailedAttempts int `json:"failed_attempts,omitempty"`

	// Blocked is set on threat-detection events recorded through the security
	// metrics surface.
	Blocked *bool `json:"blocked,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// IsZero reports whether no metadata was attached.
func (m EventMetadata) IsZero() bool {
	return m.FailedAttempts == 0 && m.Blocked == nil && len(m.Extra) == 0
}

// SecurityEvent is an append-only record of an anomalous observation.
type SecurityEvent struct {
	ID          string
	EventType   string
	Severity    Severity
	Description string
	TriggeredBy *string // user ID, when attributable
	SourceIP    *string
	UserAgent   *string
	OccurredAt  time.Time
	Metadata    EventMetadata
}
