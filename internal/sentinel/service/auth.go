package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/sentinelsec/sentinel/pkg/cryptox"
	"github.com/sentinelsec/sentinel/pkg/jwtx"
	"github.com/sentinelsec/sentinel/pkg/slogx"
)

// DefaultMaxLoginAttempts is the same-day failure count that triggers a
// brute_force_attempt event.
const DefaultMaxLoginAttempts = 5

var (
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords. Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrAccountInactive is returned when the credentials match a deactivated
	// account.
	ErrAccountInactive = errors.New("account_inactive")
)

// LoginRequest carries the credentials plus the request context recorded in
// the audit trail.
type LoginRequest struct {
	Username  string
	Password  string
	SourceIP  string
	UserAgent *string
}

// AuthService orchestrates the login, refresh, and logout flows. Every flow
// records its duration in the latency tracker and its outcome in the audit
// trail; audit write failures are logged and swallowed so telemetry can never
// take authentication down.
type AuthService struct {
	Store   store.Store
	Tokens  *TokenService
	Audit   *AuditService
	Latency *telemetry.LatencyTracker
	Metrics *telemetry.Metrics

	// MaxLoginAttempts is the brute-force threshold. Zero means the default.
	MaxLoginAttempts int
}

// Login verifies the credentials and issues a token pair.
//
// The flow walks UserLookup, AccountCheck, PasswordCheck in order and stops at
// the first failure. Every attempt, failed or not, lands in the audit trail.
// Unknown usernames and inactive accounts additionally record a
// suspicious_login event, and a failure that brings the username's same-day
// failure count up to the threshold records a brute_force_attempt event.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (domain.TokenPair, domain.UserView, error) {
	start := time.Now()
	defer s.recordLatency(start)

	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	user, err := s.Store.Users().GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.noteFailure(ctx, req, nil, domain.FailureUserNotFound, now)
			s.noteEvent(ctx, domain.SecurityEvent{
				EventType:   domain.EventSuspiciousLogin,
				Severity:    domain.SeverityLow,
				Description: fmt.Sprintf("Login attempt for non-existent user: %s", req.Username),
				SourceIP:    optional(req.SourceIP),
				UserAgent:   req.UserAgent,
				OccurredAt:  now,
			})
			s.Metrics.IncLoginAttempt(telemetry.OutcomeRejected)
			return domain.TokenPair{}, domain.UserView{}, ErrInvalidCredentials
		}
		s.Metrics.IncLoginAttempt(telemetry.OutcomeError)
		return domain.TokenPair{}, domain.UserView{}, err
	}

	if !user.IsActive {
		s.noteFailure(ctx, req, &user.ID, domain.FailureAccountInactive, now)
		s.noteEvent(ctx, domain.SecurityEvent{
			EventType:   domain.EventSuspiciousLogin,
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Login attempt for inactive account: %s", req.Username),
			TriggeredBy: &user.ID,
			SourceIP:    optional(req.SourceIP),
			UserAgent:   req.UserAgent,
			OccurredAt:  now,
		})
		s.Metrics.IncLoginAttempt(telemetry.OutcomeInactive)
		return domain.TokenPair{}, domain.UserView{}, ErrAccountInactive
	}

	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			s.Metrics.IncLoginAttempt(telemetry.OutcomeError)
			return domain.TokenPair{}, domain.UserView{}, err
		}
		s.noteFailure(ctx, req, &user.ID, domain.FailureInvalidPassword, now)
		s.Metrics.IncLoginAttempt(telemetry.OutcomeRejected)
		return domain.TokenPair{}, domain.UserView{}, ErrInvalidCredentials
	}

	// Issue the pair before any success bookkeeping so a signing failure
	// cannot leave a successful-session audit record behind.
	pair, err := s.Tokens.IssuePair(user, now)
	if err != nil {
		s.Metrics.IncLoginAttempt(telemetry.OutcomeError)
		return domain.TokenPair{}, domain.UserView{}, err
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.Metrics.IncLoginAttempt(telemetry.OutcomeError)
		return domain.TokenPair{}, domain.UserView{}, err
	}
	user.LastLoginAt = &now

	sessionID := uuid.NewString()
	attempt := domain.LoginAttempt{
		UserID:      &user.ID,
		Username:    user.Username,
		AttemptedAt: now,
		SourceIP:    req.SourceIP,
		UserAgent:   req.UserAgent,
		Succeeded:   true,
		SessionID:   &sessionID,
	}
	if err := s.Audit.RecordAttempt(ctx, attempt); err != nil {
		l.Error("recording successful login attempt failed", slog.Any("error", err))
	}

	s.Metrics.IncLoginAttempt(telemetry.OutcomeSuccess)
	l.Info("login succeeded",
		slog.String("username", user.Username),
		slog.String("session_id", sessionID),
	)
	return pair, user.View(), nil
}

// Refresh rotates a token pair. A rejected token additionally records an
// invalid_token security event.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, sourceIP string, userAgent *string) (domain.TokenPair, error) {
	start := time.Now()
	defer s.recordLatency(start)

	pair, err := s.Tokens.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrWrongTokenType) || errors.Is(err, ErrStaleSubject) {
			s.noteEvent(ctx, domain.SecurityEvent{
				EventType:   domain.EventInvalidToken,
				Severity:    domain.SeverityMedium,
				Description: "Refresh rejected: " + err.Error(),
				SourceIP:    optional(sourceIP),
				UserAgent:   userAgent,
			})
		}
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// Logout records the stateless logout. Tokens stay valid until expiry, so the
// only effect is the audit record.
func (s *AuthService) Logout(ctx context.Context, claims jwtx.Claims, sourceIP string, userAgent *string) {
	start := time.Now()
	defer s.recordLatency(start)

	s.noteEvent(ctx, domain.SecurityEvent{
		EventType:   domain.EventUnusualActivity,
		Severity:    domain.SeverityLow,
		Description: fmt.Sprintf("User %q logged out; tokens remain valid until expiry", claims.Subject),
		TriggeredBy: optional(claims.UserID),
		SourceIP:    optional(sourceIP),
		UserAgent:   userAgent,
	})
}

// CurrentUser resolves the authenticated user's sanitized view.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (domain.UserView, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.UserView{}, ErrStaleSubject
		}
		return domain.UserView{}, err
	}
	if !user.IsActive {
		return domain.UserView{}, ErrStaleSubject
	}
	return user.View(), nil
}

// noteFailure appends the failed attempt and, once the same-UTC-day failure
// count reaches the threshold, a brute_force_attempt event carrying the count.
func (s *AuthService) noteFailure(ctx context.Context, req LoginRequest, userID *string, reason string, now time.Time) {
	l := slogx.FromContext(ctx)

	attempt := domain.LoginAttempt{
		UserID:        userID,
		Username:      req.Username,
		AttemptedAt:   now,
		SourceIP:      req.SourceIP,
		UserAgent:     req.UserAgent,
		Succeeded:     false,
		FailureReason: &reason,
	}
	if err := s.Audit.RecordAttempt(ctx, attempt); err != nil {
		l.Error("recording failed login attempt failed", slog.Any("error", err))
		return
	}

	count, err := s.Audit.CountFailuresToday(ctx, req.Username, now)
	if err != nil {
		l.Error("counting failed login attempts failed", slog.Any("error", err))
		return
	}

	threshold := s.MaxLoginAttempts
	if threshold <= 0 {
		threshold = DefaultMaxLoginAttempts
	}
	if count < threshold {
		return
	}

	s.noteEvent(ctx, domain.SecurityEvent{
		EventType:   domain.EventBruteForceAttempt,
		Severity:    domain.SeverityHigh,
		Description: fmt.Sprintf("%d failed login attempts today for user %q", count, req.Username),
		TriggeredBy: userID,
		SourceIP:    optional(req.SourceIP),
		UserAgent:   req.UserAgent,
		OccurredAt:  now,
		Metadata:    domain.EventMetadata{FailedAttempts: count},
	})
	l.Warn("brute force threshold reached",
		slog.String("username", req.Username),
		slog.Int("failed_attempts", count),
	)
}

func (s *AuthService) noteEvent(ctx context.Context, e domain.SecurityEvent) {
	if err := s.Audit.RecordEvent(ctx, e); err != nil {
		slogx.FromContext(ctx).Error("recording security event failed",
			slog.String("event_type", e.EventType),
			slog.Any("error", err),
		)
	}
}

func (s *AuthService) recordLatency(start time.Time) {
	if s.Latency == nil {
		return
	}
	s.Latency.Record(float64(time.Since(start)) / float64(time.Millisecond))
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
