package auth

import (
	"context"
	"net/http"
	"strings"

	"SessionScope/internal/user"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type identityKey struct{}

// UserResolver confirms that a token subject still exists and yields
// the caller's identity record.
type UserResolver interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Middleware resolves bearer credentials into a caller identity before
// any query executes. Authorization failures short-circuit with 401 or
// 403 and never reach the handler.
type Middleware struct {
	tokens *JWTManager
	users  UserResolver
	log    zerolog.Logger
}

func NewMiddleware(tokens *JWTManager, users UserResolver, log zerolog.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// RequireUser admits any request carrying a valid bearer token whose
// subject still exists in the user store.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w)
			return
		}
		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			m.log.Debug().Err(err).Msg("token validation failed")
			m.unauthorized(w)
			return
		}
		u, err := m.users.GetByUsername(r.Context(), claims.Username)
		if err != nil {
			m.log.Debug().Str("username", claims.Username).Msg("token subject no longer exists")
			m.unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), u)))
	})
}

// RequireAdmin admits only authenticated callers with the admin role.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := IdentityFrom(r.Context())
		if u == nil || u.Role != "admin" {
			WriteDetail(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m *Middleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteDetail(w, http.StatusUnauthorized, "could not validate credentials")
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

// WithIdentity stores the resolved caller identity on the context.
func WithIdentity(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFrom returns the caller identity resolved by RequireUser.
func IdentityFrom(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(identityKey{}).(*user.User)
	return u, ok
}

// WriteDetail writes the `{"detail": ...}` error body used across the
// API surface.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
