package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName  = "climate_draft_session"
	sessionIDKey = "sid"
)

// SessionIDKey is the context key for the anonymous session ID.
const SessionIDKey contextKey = "session_id"

// SessionStore issues the anonymous session cookie that gives draft
// continuity before login: a draft started pre-auth keeps its session ID so
// it can be reclaimed after the user signs in.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore creates a cookie-backed session store. The key must be
// kept stable across instances or sessions will not survive restarts.
func NewSessionStore(key string) *SessionStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// EnsureSession guarantees the request carries a session ID, minting one on
// first contact, and puts it in the context.
func (s *SessionStore) EnsureSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, sessionName)

		sid, _ := session.Values[sessionIDKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			session.Values[sessionIDKey] = sid
			_ = session.Save(r, w)
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sid)
		next(w, r.WithContext(ctx))
	}
}

// GetSessionID retrieves the anonymous session ID from the context.
func GetSessionID(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}
