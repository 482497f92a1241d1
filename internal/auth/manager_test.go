package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzzaaa12/ai-vocabulary-review/internal/config"
)

func newTestManager(t *testing.T) (*Manager, *config.Store, *time.Time) {
	t.Helper()

	store, err := config.Open(filepath.Join(t.TempDir(), "api_keys.json"))
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	manager := NewManager(store)
	manager.now = func() time.Time { return now }

	return manager, store, &now
}

func TestIsAuthenticated_NoPasscodeBypass(t *testing.T) {
	manager, _, _ := newTestManager(t)

	session := &Session{}
	assert.True(t, manager.IsAuthenticated(session), "fresh session with no passcode configured is authenticated")
}

func TestAuthenticate_Success(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))

	session := &Session{FailedAttempts: 2}
	result := manager.Authenticate(session, "1234")

	assert.True(t, result.Success)
	assert.True(t, session.Authenticated)
	assert.True(t, session.Persistent)
	assert.Equal(t, *now, session.LoginTime)
	assert.Equal(t, *now, session.LastActivity)
	assert.Zero(t, session.FailedAttempts)
	assert.True(t, session.BlockedUntil.IsZero())
}

func TestAuthenticate_WrongPasscodeCountsDown(t *testing.T) {
	manager, store, _ := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetMaxFailedAttempts(3))

	session := &Session{}

	result := manager.Authenticate(session, "0000")
	assert.False(t, result.Success)
	assert.Equal(t, ReasonWrongPasscode, result.Reason)
	assert.Contains(t, result.Message, "2 attempt(s) remaining")
	assert.Equal(t, 1, session.FailedAttempts)
	assert.False(t, session.Authenticated)
}

func TestAuthenticate_LockoutThreshold(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetMaxFailedAttempts(3))

	session := &Session{}

	first := manager.Authenticate(session, "0000")
	assert.Equal(t, ReasonWrongPasscode, first.Reason)
	second := manager.Authenticate(session, "0000")
	assert.Equal(t, ReasonWrongPasscode, second.Reason)

	third := manager.Authenticate(session, "0000")
	assert.Equal(t, ReasonLockedOut, third.Reason)
	assert.Equal(t, now.Add(30*time.Minute), session.BlockedUntil)

	// While blocked even the correct passcode is rejected outright.
	fourth := manager.Authenticate(session, "1234")
	assert.False(t, fourth.Success)
	assert.Equal(t, ReasonBlocked, fourth.Reason)
	assert.Contains(t, fourth.Message, "30 minute(s)")

	// After the block window elapses the correct passcode works and the
	// counter is back to zero.
	*now = now.Add(30*time.Minute + time.Second)
	fifth := manager.Authenticate(session, "1234")
	assert.True(t, fifth.Success)
	assert.Zero(t, session.FailedAttempts)
	assert.True(t, session.BlockedUntil.IsZero())
}

func TestAuthenticate_BlockedMessageShowsAtLeastOneMinute(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))

	session := &Session{BlockedUntil: now.Add(20 * time.Second)}
	result := manager.Authenticate(session, "1234")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "1 minute(s)")
}

func TestIsBlocked_LazyExpiryClearsCounter(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))

	session := &Session{FailedAttempts: 5, BlockedUntil: now.Add(90 * time.Second)}

	blocked, secondsLeft := manager.IsBlocked(session)
	assert.True(t, blocked)
	assert.Equal(t, 90, secondsLeft)

	*now = now.Add(2 * time.Minute)
	blocked, secondsLeft = manager.IsBlocked(session)
	assert.False(t, blocked)
	assert.Zero(t, secondsLeft)
	assert.Zero(t, session.FailedAttempts)
	assert.True(t, session.BlockedUntil.IsZero())
}

func TestIsAuthenticated_AutoLogoutExpiry(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetAutoLogoutEnabled(true))
	require.NoError(t, store.SetAutoLogoutHours(1))

	session := &Session{
		Authenticated: true,
		LoginTime:     now.Add(-61 * time.Minute),
		LastActivity:  now.Add(-time.Minute),
	}

	assert.False(t, manager.IsAuthenticated(session))
	assert.False(t, session.Authenticated, "implicit logout fired")
	assert.True(t, session.LoginTime.IsZero())
}

func TestIsAuthenticated_AutoLogoutDisabled(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetAutoLogoutEnabled(false))

	session := &Session{
		Authenticated: true,
		LoginTime:     now.AddDate(-1, 0, 0),
	}

	assert.True(t, manager.IsAuthenticated(session))
	assert.Equal(t, *now, session.LastActivity, "activity refreshed on check")
}

func TestIsAuthenticated_MissingLoginTimeFailsClosed(t *testing.T) {
	manager, store, _ := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetAutoLogoutEnabled(true))

	session := &Session{Authenticated: true}
	assert.False(t, manager.IsAuthenticated(session))
}

func TestLogout_FullReset(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))

	session := &Session{
		Authenticated:  true,
		LoginTime:      *now,
		LastActivity:   *now,
		FailedAttempts: 2,
		BlockedUntil:   now.Add(time.Minute),
		Persistent:     true,
	}

	manager.Logout(session)

	assert.Equal(t, &Session{}, session)
}

func TestSessionInfo(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetAutoLogoutEnabled(true))
	require.NoError(t, store.SetAutoLogoutHours(2))

	session := &Session{}
	require.True(t, manager.Authenticate(session, "1234").Success)

	*now = now.Add(30 * time.Minute)
	info := manager.SessionInfo(session)

	require.True(t, info.Authenticated)
	require.NotNil(t, info.ExpiresAt)
	require.NotNil(t, info.MinutesRemaining)
	assert.Equal(t, 90, *info.MinutesRemaining)
	assert.True(t, info.AutoLogoutEnabled)

	// Far past expiry the info collapses to unauthenticated.
	*now = now.Add(3 * time.Hour)
	expired := manager.SessionInfo(session)
	assert.False(t, expired.Authenticated)
	assert.Nil(t, expired.ExpiresAt)
}

func TestSessionInfo_MinutesRemainingFlooredAtZero(t *testing.T) {
	manager, store, now := newTestManager(t)
	require.NoError(t, store.SetPasscode("1234"))
	require.NoError(t, store.SetAutoLogoutEnabled(false))

	session := &Session{}
	require.True(t, manager.Authenticate(session, "1234").Success)

	require.NoError(t, store.SetAutoLogoutEnabled(true))
	require.NoError(t, store.SetAutoLogoutHours(1))

	// Just inside the expiry window, minutes remaining must not go negative.
	*now = now.Add(time.Hour - time.Second)
	info := manager.SessionInfo(session)
	require.True(t, info.Authenticated)
	require.NotNil(t, info.MinutesRemaining)
	assert.Equal(t, 0, *info.MinutesRemaining)
}
