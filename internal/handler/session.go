package handler

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"paperbank/internal/notify"
	"paperbank/internal/state"
	"paperbank/internal/upload"
	"paperbank/internal/view"
)

const sessionCookieName = "session"

// Session bundles the per-browser-session components: the state store, the
// notification queue, the view router, and the upload orchestrator. Every
// request carries exactly one Session.
type Session struct {
	State    *state.Store
	Notifier *notify.Notifier
	Router   *view.Router
	Uploader *upload.Orchestrator
}

// sessionFactory builds a fully wired Session. The handler supplies it so
// the registry stays free of backend and extraction dependencies.
type sessionFactory func() *Session

// registry maps session cookie tokens to live sessions. Sessions live for
// the process lifetime; nothing here persists.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  sessionFactory
}

func newRegistry(factory sessionFactory) *registry {
	return &registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// get returns the session for token, creating it on first sight.
func (r *registry) get(token string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		s = r.factory()
		r.sessions[token] = s
	}
	return s
}

// withSession is middleware that ensures a session cookie and resolves the
// matching Session before the handler runs.
func (h *Handler) withSession(next func(w http.ResponseWriter, r *http.Request, s *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			token = cookie.Value
		}
		if token == "" {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   h.secureCookies,
			})
		}
		next(w, r, h.sessions.get(token))
	}
}
