package authz

import (
	"log/slog"
	"net/http"
	"strings"
)

// ResourceResolver builds the resource descriptor for a request, typically
// via a FactFinder using route parameters.
type ResourceResolver func(r *http.Request) (Resource, error)

// Middleware gates HTTP handlers on authorization decisions. Denials
// collapse to a uniform 403 so the policy structure never leaks.
type Middleware struct {
	Logger   *slog.Logger
	LoginURL string
	// DenyHook observes denial reasons, e.g. for metrics. May be nil.
	DenyHook func(reason Reason)
}

// RequireRole admits only principals holding one of the given roles. Used
// for coarse route gating; record-level checks still go through Require.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if !p.Authenticated() {
				m.unauthenticated(w, r)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(ReasonRoleForbidden)
			m.forbidden(w, r)
		})
	}
}

// Require admits the request only when Check allows the action on the
// resource produced by the resolver.
func (m Middleware) Require(action Action, resolve ResourceResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if !p.Authenticated() {
				m.unauthenticated(w, r)
				return
			}
			res, err := resolve(r)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Warn("resolve resource facts", slog.Any("error", err))
				}
				m.forbidden(w, r)
				return
			}
			if d := Check(p, action, res); !d.Allow {
				if m.Logger != nil {
					m.Logger.Debug("authorization denied",
						slog.Int64("user_id", p.UserID),
						slog.String("role", string(p.Role)),
						slog.String("action", string(action)),
						slog.String("resource", string(res.Type)),
						slog.String("reason", string(d.Reason)))
				}
				m.deny(d.Reason)
				m.forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if m.LoginURL != "" && r.Method == http.MethodGet && acceptsHTML(r) {
		http.Redirect(w, r, m.LoginURL, http.StatusSeeOther)
		return
	}
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

func (m Middleware) deny(reason Reason) {
	if m.DenyHook != nil {
		m.DenyHook(reason)
	}
}

func (m Middleware) forbidden(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func acceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "" || accept == "*/*" || strings.Contains(accept, "text/html")
}
