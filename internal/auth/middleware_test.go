package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzzaaa12/ai-vocabulary-review/internal/config"
)

func newTestGuard(t *testing.T) (*Guard, *Handler, *Manager, *Codec, *config.Store) {
	t.Helper()

	store, err := config.Open(filepath.Join(t.TempDir(), "api_keys.json"))
	require.NoError(t, err)

	codec := NewCodec("test-secret")
	manager := NewManager(store)
	guard := NewGuard(manager, codec)
	handler := NewHandler(manager, codec)

	return guard, handler, manager, codec, store
}

// sessionCookie pulls the signed session cookie out of a recorded response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}

	t.Fatal("no session cookie in response")
	return nil
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequirePage_RedirectsAndPreservesDestination(t *testing.T) {
	guard, handler, _, codec, store := newTestGuard(t)
	require.NoError(t, store.SetPasscode("1234"))

	next, called := okHandler()
	protected := guard.RequirePage(next)

	req := httptest.NewRequest(http.MethodGet, "/word/42", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, *called)

	cookie := sessionCookie(t, rec)
	stashed := codec.Load(requestWithCookie(http.MethodGet, "/login", cookie))
	assert.Equal(t, "/word/42", stashed.NextURL)
	assert.NotEmpty(t, stashed.Flash)

	// Logging in consumes the destination exactly once.
	form := url.Values{"passcode": {"1234"}}
	loginReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	loginReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginReq.AddCookie(cookie)
	loginRec := httptest.NewRecorder()
	handler.Login(loginRec, loginReq)

	assert.Equal(t, http.StatusSeeOther, loginRec.Code)
	assert.Equal(t, "/word/42", loginRec.Header().Get("Location"))

	after := codec.Load(requestWithCookie(http.MethodGet, "/", sessionCookie(t, loginRec)))
	assert.Empty(t, after.NextURL, "destination consumed")
	assert.True(t, after.Authenticated)
}

func TestRequirePage_PassThroughWhenAuthenticated(t *testing.T) {
	guard, _, manager, codec, store := newTestGuard(t)
	require.NoError(t, store.SetPasscode("1234"))

	session := &Session{}
	require.True(t, manager.Authenticate(session, "1234").Success)
	cookie := cookieFor(t, codec, session)

	next, called := okHandler()
	protected := guard.RequirePage(next)

	req := requestWithCookie(http.MethodGet, "/word/42", cookie)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestRequireAPI_NeverRedirects(t *testing.T) {
	guard, _, _, _, store := newTestGuard(t)
	require.NoError(t, store.SetPasscode("1234"))

	next, called := okHandler()
	protected := guard.RequireAPI(next)

	req := httptest.NewRequest(http.MethodGet, "/api/words", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.False(t, *called)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, ErrorCodeAuthRequired, payload["error_code"])
}

func TestRequireAPI_PassThroughWithoutPasscode(t *testing.T) {
	guard, _, _, _, _ := newTestGuard(t)

	next, called := okHandler()
	protected := guard.RequireAPI(next)

	req := httptest.NewRequest(http.MethodGet, "/api/words", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestGuards_RefreshLastActivity(t *testing.T) {
	guard, _, manager, codec, store := newTestGuard(t)
	require.NoError(t, store.SetPasscode("1234"))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	session := &Session{}
	require.True(t, manager.Authenticate(session, "1234").Success)
	cookie := cookieFor(t, codec, session)

	now = now.Add(10 * time.Minute)

	next, _ := okHandler()
	rec := httptest.NewRecorder()
	guard.RequireAPI(next).ServeHTTP(rec, requestWithCookie(http.MethodGet, "/api/words", cookie))

	refreshed := codec.Load(requestWithCookie(http.MethodGet, "/", sessionCookie(t, rec)))
	assert.Equal(t, now.Unix(), refreshed.LastActivity.Unix())
}

func requestWithCookie(method, target string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(cookie)
	return req
}

func cookieFor(t *testing.T, codec *Codec, session *Session) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, codec.Save(rec, req, session))

	return sessionCookie(t, rec)
}
