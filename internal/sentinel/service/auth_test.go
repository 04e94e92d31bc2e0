package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/internal/sentinel/store/drivers/sqlite"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, st *sqlite.Store) *AuthService {
	t.Helper()

	return &AuthService{
		Store: st,
		Tokens: &TokenService{
			Store:     st,
			Codec:     newTestCodec(t),
			AccessTTL: time.Minute, RefreshTTL: time.Hour,
		},
		Audit:   &AuditService{Store: st},
		Latency: telemetry.NewLatencyTracker(10, 50, 2400, nil),
	}
}

func loginReq(username, password string) LoginRequest {
	return LoginRequest{
		Username: username,
		Password: password,
		SourceIP: "10.0.0.1",
	}
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	seedUser(t, st, "alice", "pw", domain.RoleAnalyst, true)

	pair, view, err := svc.Login(ctx, loginReq("alice", "pw"))
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "alice", view.Username)
	require.NotNil(t, view.LastLoginAt, "lastLoginAt must be stamped on success")

	attempts, err := st.LoginAttempts().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.True(t, attempts[0].Succeeded)
	require.NotNil(t, attempts[0].SessionID)
	require.Nil(t, attempts[0].FailureReason)

	// A clean login is not a security event.
	events, err := st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)

	require.Equal(t, int64(1), svc.Latency.Snapshot().TotalRequests)
}

func TestLoginEnumerationResistance(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	seedUser(t, st, "alice", "pw", domain.RoleUser, true)

	_, _, unknownErr := svc.Login(ctx, loginReq("ghost", "whatever"))
	_, _, badPassErr := svc.Login(ctx, loginReq("alice", "wrong"))

	// Both rejections must be indistinguishable to the caller.
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, badPassErr, ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), badPassErr.Error())

	// The audit trail keeps the specific reason.
	attempts, err := st.LoginAttempts().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	reasons := map[string]bool{}
	for _, a := range attempts {
		require.False(t, a.Succeeded)
		require.NotNil(t, a.FailureReason)
		reasons[*a.FailureReason] = true
	}
	require.True(t, reasons[domain.FailureUserNotFound])
	require.True(t, reasons[domain.FailureInvalidPassword])

	// Unknown usernames never get a user id on the attempt record.
	for _, a := range attempts {
		if *a.FailureReason == domain.FailureUserNotFound {
			require.Nil(t, a.UserID)
		} else {
			require.NotNil(t, a.UserID)
		}
	}

	// The unknown-user probe is recorded as reconnaissance; a wrong password
	// on a real account is not.
	events, err := st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventSuspiciousLogin, events[0].EventType)
	require.Equal(t, domain.SeverityLow, events[0].Severity)
	require.Contains(t, events[0].Description, "ghost")
	require.Nil(t, events[0].TriggeredBy)

	vectors, err := st.ThreatVectors().ListByCount(ctx, 10)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Equal(t, domain.EventSuspiciousLogin, vectors[0].ThreatType)
}

func TestLoginInactiveAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	user := seedUser(t, st, "bob", "pw", domain.RoleUser, false)

	// Correct password, inactive account: distinct error, audited reason.
	_, _, err := svc.Login(ctx, loginReq("bob", "pw"))
	require.ErrorIs(t, err, ErrAccountInactive)

	attempts, listErr := st.LoginAttempts().ListRecent(ctx, 10)
	require.NoError(t, listErr)
	require.Len(t, attempts, 1)
	require.NotNil(t, attempts[0].FailureReason)
	require.Equal(t, domain.FailureAccountInactive, *attempts[0].FailureReason)

	// The hit on a deactivated account is flagged, attributed to the account.
	events, listErr := st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, listErr)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventSuspiciousLogin, events[0].EventType)
	require.Equal(t, domain.SeverityMedium, events[0].Severity)
	require.Contains(t, events[0].Description, "bob")
	require.NotNil(t, events[0].TriggeredBy)
	require.Equal(t, user.ID, *events[0].TriggeredBy)
}

func TestLoginBruteForceThreshold(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)
	svc.MaxLoginAttempts = 5

	seedUser(t, st, "alice", "pw", domain.RoleUser, true)

	for i := 0; i < 4; i++ {
		_, _, err := svc.Login(ctx, loginReq("alice", "wrong"))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Four failures stay below the threshold.
	events, err := st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)

	// The fifth crosses it.
	_, _, err = svc.Login(ctx, loginReq("alice", "wrong"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	events, err = st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventBruteForceAttempt, events[0].EventType)
	require.Equal(t, domain.SeverityHigh, events[0].Severity)
	require.Equal(t, 5, events[0].Metadata.FailedAttempts)

	// The event bumped the matching threat vector.
	vectors, err := st.ThreatVectors().ListByCount(ctx, 10)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Equal(t, domain.EventBruteForceAttempt, vectors[0].ThreatType)
	require.Equal(t, int64(1), vectors[0].Count)

	// Every further failure keeps reporting, with a growing count.
	_, _, err = svc.Login(ctx, loginReq("alice", "wrong"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	events, err = st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, 6, events[0].Metadata.FailedAttempts)
}

func TestLoginAuditFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	// Attempt writes fail, credential verification must still succeed.
	svc.Audit = &AuditService{Store: attemptFailStore{st}}

	seedUser(t, st, "alice", "pw", domain.RoleUser, true)

	pair, _, err := svc.Login(ctx, loginReq("alice", "pw"))
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestLoginInternalErrorLeavesNoSuccessRecord(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	// The flow errors after the password check; the audit trail must not
	// claim a session the caller never got.
	svc.Store = lastLoginFailStore{st}

	seedUser(t, st, "alice", "pw", domain.RoleUser, true)

	_, _, err := svc.Login(ctx, loginReq("alice", "pw"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)

	attempts, listErr := st.LoginAttempts().ListRecent(ctx, 10)
	require.NoError(t, listErr)
	require.Empty(t, attempts)
}

func TestRefreshRecordsInvalidTokenEvent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	_, err := svc.Refresh(ctx, "not-a-token", "10.0.0.1", nil)
	require.ErrorIs(t, err, ErrInvalidToken)

	events, listErr := st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, listErr)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventInvalidToken, events[0].EventType)
	require.Equal(t, domain.SeverityMedium, events[0].Severity)
}

func TestLogoutRecordsEvent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	user := seedUser(t, st, "alice", "pw", domain.RoleUser, true)
	pair, _, err := svc.Login(ctx, loginReq("alice", "pw"))
	require.NoError(t, err)

	claims, err := svc.Tokens.Decode(pair.AccessToken)
	require.NoError(t, err)

	svc.Logout(ctx, claims, "10.0.0.1", nil)

	events, err := st.SecurityEvents().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventUnusualActivity, events[0].EventType)
	require.Equal(t, domain.SeverityLow, events[0].Severity)
	require.NotNil(t, events[0].TriggeredBy)
	require.Equal(t, user.ID, *events[0].TriggeredBy)
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	user := seedUser(t, st, "alice", "pw", domain.RoleUser, true)

	view, err := svc.CurrentUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", view.Username)

	require.NoError(t, st.Users().SetActive(ctx, user.ID, false))
	_, err = svc.CurrentUser(ctx, user.ID)
	require.ErrorIs(t, err, ErrStaleSubject)

	_, err = svc.CurrentUser(ctx, "missing-id")
	require.ErrorIs(t, err, ErrStaleSubject)
}

// attemptFailStore wraps a working store with a login-attempts repo that
// always fails.
type attemptFailStore struct {
	store.Store
}

func (s attemptFailStore) LoginAttempts() store.LoginAttempts { return failingAttempts{} }

type failingAttempts struct{}

func (failingAttempts) Append(context.Context, domain.LoginAttempt) error {
	return errors.New("disk full")
}

func (failingAttempts) CountFailuresSince(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("disk full")
}

func (failingAttempts) ListRecent(context.Context, int) ([]domain.LoginAttempt, error) {
	return nil, errors.New("disk full")
}

// lastLoginFailStore wraps a working store with a users repo whose last-login
// stamp always fails.
type lastLoginFailStore struct {
	store.Store
}

func (s lastLoginFailStore) Users() store.Users { return failingUsers{s.Store.Users()} }

type failingUsers struct {
	store.Users
}

func (failingUsers) UpdateLastLogin(context.Context, string, time.Time) error {
	return errors.New("disk full")
}
