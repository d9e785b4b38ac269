package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

// UserLoader resolves the signed-in user from the request session. It
// returns (nil, nil) for guests.
type UserLoader interface {
	UserFromSession(ctx context.Context) (*user.User, error)
}

// ProvideUser puts the session's user into the context when there is one.
func ProvideUser(loader UserLoader) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := loader.UserFromSession(r.Context())
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Error("failed to load user from session")
				httpapi.Internal(w)
				return
			}
			if u == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := composables.WithUser(r.Context(), u)
			ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithField("user_id", u.ID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				httpapi.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenantRole lets the request through only when the user's membership
// in the current tenant holds one of roles.
func RequireTenantRole(roles ...membership.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				httpapi.Unauthorized(w)
				return
			}
			m, err := composables.UseMembership(r.Context())
			if err != nil || !m.HasRole(roles...) {
				httpapi.Forbidden(w, "insufficient role for this workspace")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
