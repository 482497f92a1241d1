package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "vocab_session"

	// Lifetime of the cookie itself when the session is marked persistent.
	// Server-side expiry (auto-logout) is enforced separately by Manager.
	persistentCookieAge = 30 * 24 * time.Hour
)

// Session is the per-browser authentication state, carried in a signed
// cookie. Zero timestamps mean "unset".
type Session struct {
	Authenticated  bool
	LoginTime      time.Time
	LastActivity   time.Time
	FailedAttempts int
	BlockedUntil   time.Time
	NextURL        string
	Flash          string
	Persistent     bool
}

type sessionClaims struct {
	Authenticated  bool   `json:"auth,omitempty"`
	LoginTime      int64  `json:"login_time,omitempty"`
	LastActivity   int64  `json:"last_activity,omitempty"`
	FailedAttempts int    `json:"failed_attempts,omitempty"`
	BlockedUntil   int64  `json:"blocked_until,omitempty"`
	NextURL        string `json:"next_url,omitempty"`
	Flash          string `json:"flash,omitempty"`
	Persistent     bool   `json:"persistent,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs sessions into cookies and validates them back out. A cookie
// that is missing, tampered with, or unreadable yields a fresh session
// rather than an error.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return &Session{}
	}

	return &Session{
		Authenticated:  claims.Authenticated,
		LoginTime:      unixTime(claims.LoginTime),
		LastActivity:   unixTime(claims.LastActivity),
		FailedAttempts: claims.FailedAttempts,
		BlockedUntil:   unixTime(claims.BlockedUntil),
		NextURL:        claims.NextURL,
		Flash:          claims.Flash,
		Persistent:     claims.Persistent,
	}
}

func (c *Codec) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	claims := &sessionClaims{
		Authenticated:  s.Authenticated,
		LoginTime:      unixOrZero(s.LoginTime),
		LastActivity:   unixOrZero(s.LastActivity),
		FailedAttempts: s.FailedAttempts,
		BlockedUntil:   unixOrZero(s.BlockedUntil),
		NextURL:        s.NextURL,
		Flash:          s.Flash,
		Persistent:     s.Persistent,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	}
	if s.Persistent {
		cookie.MaxAge = int(persistentCookieAge.Seconds())
	}

	http.SetCookie(w, cookie)
	return nil
}

// LoadOrCreateCookieSecret reads the session signing secret from a file,
// generating it once on first run so sessions survive restarts.
func LoadOrCreateCookieSecret(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err == nil && len(raw) > 0 {
		return string(raw), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("read cookie secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cookie secret: %w", err)
	}

	secret := hex.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", fmt.Errorf("write cookie secret: %w", err)
	}

	return secret, nil
}

func unixTime(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.Unix(value, 0).UTC()
}

func unixOrZero(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.Unix()
}
