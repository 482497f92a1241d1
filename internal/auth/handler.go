package auth

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
)

const maxFormBodyBytes = 1 << 16

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Vocabulary Notebook - Login</title></head>
<body>
<h1>Vocabulary Notebook</h1>
{{if .Flash}}<p class="notice">{{.Flash}}</p>{{end}}
<form method="post" action="/login">
<label>Passcode <input type="password" name="passcode" autofocus></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`))

type Handler struct {
	manager *Manager
	codec   *Codec
}

func NewHandler(manager *Manager, codec *Codec) *Handler {
	return &Handler{manager: manager, codec: codec}
}

// LoginPage renders the passcode form. An already authenticated session is
// sent straight to the landing page.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	session := h.codec.Load(r)
	if h.manager.IsAuthenticated(session) {
		_ = h.codec.Save(w, r, session)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	flash := session.Flash
	if flash != "" {
		session.Flash = ""
		_ = h.codec.Save(w, r, session)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPage.Execute(w, map[string]string{"Flash": flash})
}

// Login handles the passcode form submit. On success it consumes the
// session's stored destination exactly once and redirects there.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	session := h.codec.Load(r)
	passcode := strings.TrimSpace(r.PostFormValue("passcode"))
	result := h.manager.Authenticate(session, passcode)

	if !result.Success {
		session.Flash = result.Message
		_ = h.codec.Save(w, r, session)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	target := session.NextURL
	session.NextURL = ""
	if target == "" {
		target = "/"
	}

	_ = h.codec.Save(w, r, session)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout fully resets the session and returns to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.codec.Load(r)
	h.manager.Logout(session)
	_ = h.codec.Save(w, r, session)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SessionInfo reports the current session's login and expiry timestamps.
// It is safe unauthenticated: the payload is just {"authenticated":false}.
func (h *Handler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	session := h.codec.Load(r)
	info := h.manager.SessionInfo(session)
	_ = h.codec.Save(w, r, session)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}
