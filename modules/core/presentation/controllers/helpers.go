package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/authz"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/httpapi"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/middleware"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// StaffRoles may open the workspace admin area.
var StaffRoles = []membership.Role{membership.RoleAdmin, membership.RoleModerator}

// TenantRouter mounts /t/{tenantSlug} with the workspace resolved. Guests
// are allowed through.
func TenantRouter(r *mux.Router, app application.Application) *mux.Router {
	sub := r.PathPrefix("/t/{" + middleware.TenantSlugVar + "}").Subrouter()
	sub.Use(currentTenant(app))
	return sub
}

// AdminRouter mounts /t/{tenantSlug}/admin for signed-in staff.
func AdminRouter(r *mux.Router, app application.Application) *mux.Router {
	sub := r.PathPrefix("/t/{" + middleware.TenantSlugVar + "}/admin").Subrouter()
	sub.Use(
		middleware.RequireAuth(),
		currentTenant(app),
		middleware.RequireTenantRole(StaffRoles...),
	)
	return sub
}

func currentTenant(app application.Application) mux.MiddlewareFunc {
	return middleware.SetCurrentTenant(
		app.Service(services.TenantService{}).(*services.TenantService),
		app.Service(services.WorkspaceService{}).(*services.WorkspaceService),
	)
}

// Actor returns the signed-in user's membership in the request's workspace.
func Actor(r *http.Request) (*membership.Membership, error) {
	return composables.UseMembership(r.Context())
}

// WriteServiceError maps service and domain errors onto the JSON envelope.
// Anything unrecognised is logged and answered with a 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var throttled *services.InviteThrottledError
	switch {
	case errors.As(err, &throttled):
		seconds := int(math.Ceil(throttled.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", fmt.Sprint(seconds))
		_ = httpapi.WriteError(w, http.StatusTooManyRequests, httpapi.CodeTooMany, throttled.Error(),
			map[string]string{"retry_after": fmt.Sprint(seconds)})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, authz.ErrForbidden):
		httpapi.Forbidden(w, "this action is not allowed")
	case errors.Is(err, user.ErrNotFound), errors.Is(err, membership.ErrNotFound):
		httpapi.NotFound(w, "user not found")
	case errors.Is(err, tenant.ErrNotFound), errors.Is(err, services.ErrNoCurrentTenant),
		errors.Is(err, tenancy.ErrNoTenantContext):
		httpapi.NotFound(w, "workspace not found")
	case errors.Is(err, services.ErrEmailTaken):
		_ = httpapi.WriteValidation(w, map[string]string{"email": "this email is already registered"})
	case errors.Is(err, services.ErrInvalidCredentials):
		_ = httpapi.WriteValidation(w, map[string]string{"email": err.Error()})
	case errors.Is(err, user.ErrInvalidEmail):
		_ = httpapi.WriteValidation(w, map[string]string{"email": "must be a valid email address"})
	case errors.Is(err, membership.ErrInvalidRole):
		_ = httpapi.WriteValidation(w, map[string]string{"role": "must be one of: admin moderator member"})
	case errors.Is(err, imaging.ErrUnsupportedType):
		_ = httpapi.WriteValidation(w, map[string]string{"file": "must be a jpeg, png or webp image"})
	case errors.Is(err, imaging.ErrTooLarge):
		_ = httpapi.WriteValidation(w, map[string]string{"file": "file is too large"})
	case errors.Is(err, imaging.ErrTooManyPixels):
		_ = httpapi.WriteValidation(w, map[string]string{"file": "image dimensions are too large"})
	case errors.Is(err, services.ErrAlreadyVerified):
		_ = httpapi.WriteError(w, http.StatusConflict, httpapi.CodeConflict, err.Error(), nil)
	case errors.Is(err, repo.ErrUniqueViolation):
		_ = httpapi.WriteError(w, http.StatusConflict, httpapi.CodeConflict, "the record was changed concurrently, try again", nil)
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("request failed")
		httpapi.Internal(w)
	}
}

// Bind decodes the request into dto and answers 400/422 itself when
// decoding or validation fails.
func Bind[T interface{ Ok() (map[string]string, bool) }](w http.ResponseWriter, r *http.Request, dto T) bool {
	if err := httpapi.Decode(r, dto); err != nil {
		httpapi.BadRequest(w, "malformed request body")
		return false
	}
	if fields, ok := dto.Ok(); !ok {
		_ = httpapi.WriteValidation(w, fields)
		return false
	}
	return true
}
