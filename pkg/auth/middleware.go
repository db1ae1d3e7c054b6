package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

// Middleware provides HTTP authentication middleware. It validates the
// bearer token and injects an ActorContext for downstream services.
type Middleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(validator TokenValidator, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireAuth validates the JWT and requires a parseable user ID.
// Sets claims and actor context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}
		ctx, ok := m.authenticate(w, r, tokenString)
		if !ok {
			return
		}
		next(w, r.WithContext(ctx))
	}
}

// OptionalAuth injects the actor when a valid bearer token is present but
// lets anonymous requests through. Draft endpoints use this so a survey can
// be started before login and reclaimed by session cookie afterwards.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			next(w, r)
			return
		}
		// A malformed token on an optional route is still a hard failure:
		// silently downgrading a broken credential to anonymous would mask
		// client bugs.
		ctx, ok := m.authenticate(w, r, tokenString)
		if !ok {
			return
		}
		next(w, r.WithContext(ctx))
	}
}

// authenticate validates the token and returns a context carrying the
// claims and actor. On failure it writes the 401 itself and returns false.
func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request, tokenString string) (context.Context, bool) {
	claims, err := m.validator.ValidateToken(tokenString)
	if err != nil {
		m.logger.Debug("Token validation failed", zap.Error(err))
		m.unauthorized(w, "Authentication required")
		return nil, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		m.unauthorized(w, "Invalid subject in token")
		return nil, false
	}

	companyID, _ := uuid.Parse(claims.CompanyID)

	actor := models.ActorContext{
		ID:        userID,
		Name:      claims.Name,
		Role:      claims.Role,
		CompanyID: companyID,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}

	ctx := context.WithValue(r.Context(), ClaimsKey, claims)
	ctx = models.WithActor(ctx, actor)
	return ctx, true
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// clientIP returns the originating client address, honoring the gateway's
// X-Forwarded-For header when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
