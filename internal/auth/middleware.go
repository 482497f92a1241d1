package auth

import (
	"encoding/json"
	"net/http"
)

const ErrorCodeAuthRequired = "AUTH_REQUIRED"

// Guard wraps route handlers with the Manager's verdict. Two variants:
// RequirePage redirects browsers to the login page and remembers where they
// were headed; RequireAPI short-circuits with a structured JSON error and
// never redirects. Both are pure pass-through when the session is live.
type Guard struct {
	manager *Manager
	codec   *Codec
}

func NewGuard(manager *Manager, codec *Codec) *Guard {
	return &Guard{manager: manager, codec: codec}
}

func (g *Guard) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := g.codec.Load(r)
		if !g.manager.IsAuthenticated(session) {
			session.NextURL = r.URL.RequestURI()
			session.Flash = "please enter the passcode to continue"
			_ = g.codec.Save(w, r, session)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		_ = g.codec.Save(w, r, session)
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := g.codec.Load(r)
		if !g.manager.IsAuthenticated(session) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":    false,
				"message":    "authentication required",
				"error_code": ErrorCodeAuthRequired,
			})
			return
		}

		_ = g.codec.Save(w, r, session)
		next.ServeHTTP(w, r)
	})
}
