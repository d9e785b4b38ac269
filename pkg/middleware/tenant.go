package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/httpapi"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const TenantSlugVar = "tenantSlug"

type TenantLookup interface {
	GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// MembershipLookup returns userID's active membership in the context's
// tenant or membership.ErrNotFound.
type MembershipLookup interface {
	Membership(ctx context.Context, userID int64) (*membership.Membership, error)
}

// SetCurrentTenant resolves the {tenantSlug} route variable and makes that
// tenant current for the rest of the request. Authenticated users must be
// active members; guests pass through for the public pages.
func SetCurrentTenant(tenants TenantLookup, members MembershipLookup) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := composables.UseLogger(ctx)

			t, err := tenants.GetBySlug(ctx, mux.Vars(r)[TenantSlugVar])
			if errors.Is(err, tenant.ErrNotFound) {
				httpapi.NotFound(w, "workspace not found")
				return
			}
			if err != nil {
				logger.WithError(err).Error("failed to resolve workspace")
				httpapi.Internal(w)
				return
			}
			if !t.IsActive() {
				httpapi.Forbidden(w, "workspace is inactive")
				return
			}

			tc := tenancy.UseContext(ctx)
			if tc == nil {
				logger.Error("tenant middleware used without a session")
				httpapi.Internal(w)
				return
			}
			if err := tc.Set(ctx, t); err != nil {
				logger.WithError(err).Error("failed to store current workspace")
				httpapi.Internal(w)
				return
			}
			logger = logger.WithFields(logrus.Fields{"tenant_id": t.ID(), "tenant_slug": t.Slug()})
			ctx = composables.WithLogger(ctx, logger)

			if u, err := composables.UseUser(ctx); err == nil {
				m, err := members.Membership(ctx, u.ID())
				if errors.Is(err, membership.ErrNotFound) {
					httpapi.Forbidden(w, "you are not a member of this workspace")
					return
				}
				if err != nil {
					logger.WithError(err).Error("failed to load membership")
					httpapi.Internal(w)
					return
				}
				ctx = composables.WithMembership(ctx, m)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
