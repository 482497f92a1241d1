package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	login := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := &Session{
		Authenticated:  true,
		LoginTime:      login,
		LastActivity:   login.Add(5 * time.Minute),
		FailedAttempts: 2,
		BlockedUntil:   login.Add(time.Hour),
		NextURL:        "/word/42",
		Flash:          "please enter the passcode to continue",
		Persistent:     true,
	}

	loaded := codec.Load(requestWithCookie(http.MethodGet, "/", cookieFor(t, codec, original)))
	assert.Equal(t, original, loaded)
}

func TestCodec_MissingCookieYieldsFreshSession(t *testing.T) {
	codec := NewCodec("test-secret")

	loaded := codec.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, &Session{}, loaded)
}

func TestCodec_TamperedCookieYieldsFreshSession(t *testing.T) {
	codec := NewCodec("test-secret")

	cookie := cookieFor(t, codec, &Session{Authenticated: true})
	cookie.Value += "x"

	loaded := codec.Load(requestWithCookie(http.MethodGet, "/", cookie))
	assert.Equal(t, &Session{}, loaded)
}

func TestCodec_WrongSecretYieldsFreshSession(t *testing.T) {
	signer := NewCodec("secret-one")
	verifier := NewCodec("secret-two")

	cookie := cookieFor(t, signer, &Session{Authenticated: true})

	loaded := verifier.Load(requestWithCookie(http.MethodGet, "/", cookie))
	assert.Equal(t, &Session{}, loaded)
}

func TestCodec_PersistentControlsMaxAge(t *testing.T) {
	codec := NewCodec("test-secret")

	browser := cookieFor(t, codec, &Session{Authenticated: true})
	assert.Zero(t, browser.MaxAge, "session cookie expires with the browser")

	persistent := cookieFor(t, codec, &Session{Authenticated: true, Persistent: true})
	assert.Equal(t, int(persistentCookieAge.Seconds()), persistent.MaxAge)
	assert.True(t, persistent.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, persistent.SameSite)
}

func TestLoadOrCreateCookieSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session_secret")

	first, err := LoadOrCreateCookieSecret(path)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrCreateCookieSecret(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "secret is stable across restarts")
}
