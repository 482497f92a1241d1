// Package auth decides whether the current browser session is allowed in.
// It implements passcode authentication with a failed-attempt lockout, time
// based auto-logout, and the request guards that enforce both. Session
// state lives in a signed cookie; every check recomputes expiry and block
// state from stored timestamps, so there is no background timer and the
// logic holds across restarts and long idle periods.
package auth

import (
	"fmt"
	"time"

	"github.com/zzzaaa12/ai-vocabulary-review/internal/config"
)

// Block window after too many failed attempts. Fixed on purpose: one less
// tunable, still bounds brute-force attempts.
const blockDuration = 30 * time.Minute

// Manager is the authentication state machine. It reads policy from the
// config store and mutates the session it is handed; persisting the session
// back to the client is the caller's job.
type Manager struct {
	store *config.Store
	now   func() time.Time
}

func NewManager(store *config.Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Result is the discriminated outcome of an authentication attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

const (
	ReasonBlocked       = "blocked"
	ReasonLockedOut     = "locked_out"
	ReasonWrongPasscode = "wrong_passcode"
)

// PasscodeRequired reports whether a passcode gates the application. With
// no passcode configured every session is implicitly authenticated.
func (m *Manager) PasscodeRequired() bool {
	return m.store.PasscodeConfigured()
}

// IsAuthenticated reports whether the session holds a live login. An
// expired session is logged out as a side effect; a live one has its
// last-activity timestamp refreshed.
func (m *Manager) IsAuthenticated(s *Session) bool {
	if !m.PasscodeRequired() {
		return true
	}
	if !s.Authenticated {
		return false
	}
	if m.sessionExpired(s) {
		m.Logout(s)
		return false
	}

	s.LastActivity = m.now().UTC()
	return true
}

func (m *Manager) sessionExpired(s *Session) bool {
	if !m.store.AutoLogoutEnabled() {
		return false
	}
	if s.LoginTime.IsZero() {
		// No recorded login time, fail closed.
		return true
	}

	expiry := s.LoginTime.Add(time.Duration(m.store.AutoLogoutHours()) * time.Hour)
	return m.now().After(expiry)
}

// IsBlocked reports whether the session is in its lockout window and how
// many whole seconds remain. An elapsed block is cleared here, along with
// the failed-attempt counter; there is no background sweep.
func (m *Manager) IsBlocked(s *Session) (bool, int) {
	if s.BlockedUntil.IsZero() {
		return false, 0
	}

	now := m.now()
	if now.Before(s.BlockedUntil) {
		return true, int(s.BlockedUntil.Sub(now).Seconds())
	}

	s.BlockedUntil = time.Time{}
	s.FailedAttempts = 0
	return false, 0
}

// Authenticate checks the passcode against the stored one. Attempts during
// a block window are rejected without checking the passcode at all.
func (m *Manager) Authenticate(s *Session, passcode string) Result {
	if blocked, secondsLeft := m.IsBlocked(s); blocked {
		minutesLeft := (secondsLeft + 59) / 60
		if minutesLeft < 1 {
			minutesLeft = 1
		}
		return Result{
			Message: fmt.Sprintf("too many attempts, try again in %d minute(s)", minutesLeft),
			Reason:  ReasonBlocked,
		}
	}

	stored := m.store.Passcode()
	if stored == "" || passcode == stored {
		now := m.now().UTC()
		s.Authenticated = true
		s.LoginTime = now
		s.LastActivity = now
		s.Persistent = true
		s.FailedAttempts = 0
		s.BlockedUntil = time.Time{}
		return Result{Success: true, Message: "login successful"}
	}

	s.FailedAttempts++
	maxAttempts := m.store.MaxFailedAttempts()
	if s.FailedAttempts >= maxAttempts {
		s.BlockedUntil = m.now().UTC().Add(blockDuration)
		return Result{
			Message: "too many failed attempts, blocked for 30 minutes",
			Reason:  ReasonLockedOut,
		}
	}

	remaining := maxAttempts - s.FailedAttempts
	return Result{
		Message: fmt.Sprintf("wrong passcode, %d attempt(s) remaining", remaining),
		Reason:  ReasonWrongPasscode,
	}
}

// Logout resets the session to its initial unauthenticated, unblocked state.
func (m *Manager) Logout(s *Session) {
	s.Authenticated = false
	s.LoginTime = time.Time{}
	s.LastActivity = time.Time{}
	s.FailedAttempts = 0
	s.BlockedUntil = time.Time{}
	s.Persistent = false
}

// Info describes an authenticated session to the client.
type Info struct {
	Authenticated     bool       `json:"authenticated"`
	LoginTime         *time.Time `json:"login_time,omitempty"`
	LastActivity      *time.Time `json:"last_activity,omitempty"`
	AutoLogoutEnabled bool       `json:"auto_logout_enabled"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	MinutesRemaining  *int       `json:"time_remaining_minutes,omitempty"`
}

func (m *Manager) SessionInfo(s *Session) Info {
	if !m.IsAuthenticated(s) {
		return Info{}
	}

	info := Info{
		Authenticated:     true,
		AutoLogoutEnabled: m.store.AutoLogoutEnabled(),
	}
	if !s.LoginTime.IsZero() {
		loginTime := s.LoginTime
		info.LoginTime = &loginTime
	}
	if !s.LastActivity.IsZero() {
		lastActivity := s.LastActivity
		info.LastActivity = &lastActivity
	}

	if info.AutoLogoutEnabled && !s.LoginTime.IsZero() {
		expiresAt := s.LoginTime.Add(time.Duration(m.store.AutoLogoutHours()) * time.Hour)
		minutes := int(expiresAt.Sub(m.now()).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		info.ExpiresAt = &expiresAt
		info.MinutesRemaining = &minutes
	}

	return info
}
