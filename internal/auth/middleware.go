package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Middleware resolves the request principal before any guarded handler
// runs. A bearer token wins over a cookie session; failure to resolve
// leaves the principal unauthenticated rather than aborting the request,
// so public pages keep working.
type Middleware struct {
	Logger  *slog.Logger
	Service *Service
}

// ResolvePrincipal attaches the authenticated principal to the request
// context. The principal is rebuilt from the store (or the token) on every
// request and discarded afterwards.
func (m Middleware) ResolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := m.fromBearer(r); ok {
			next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), p)))
			return
		}
		if p, ok := m.fromSession(r); ok {
			next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), p)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) fromBearer(r *http.Request) (authz.Principal, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return authz.Principal{}, false
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return authz.Principal{}, false
	}
	p, err := m.Service.AuthenticateToken(strings.TrimSpace(raw))
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("bearer token rejected", slog.Any("error", err))
		}
		return authz.Principal{}, false
	}
	return p, true
}

func (m Middleware) fromSession(r *http.Request) (authz.Principal, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return authz.Principal{}, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return authz.Principal{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("parse session user id", slog.String("value", raw))
		}
		return authz.Principal{}, false
	}
	user, err := m.Service.ResolveUser(r.Context(), id)
	if err != nil || !user.IsActive {
		return authz.Principal{}, false
	}
	return user.Principal(), true
}
