package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/httpapi"
	"github.com/eventflow/eventflow/pkg/middleware"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// WorkspaceController serves the workspace picker and the tenant landing
// endpoints.
type WorkspaceController struct {
	app              application.Application
	workspaceService *services.WorkspaceService
	tenantService    *services.TenantService
}

func NewWorkspaceController(app application.Application) application.Controller {
	return &WorkspaceController{
		app:              app,
		workspaceService: app.Service(services.WorkspaceService{}).(*services.WorkspaceService),
		tenantService:    app.Service(services.TenantService{}).(*services.TenantService),
	}
}

func (c *WorkspaceController) Key() string {
	return "/workspaces"
}

func (c *WorkspaceController) Register(r *mux.Router) {
	picker := r.PathPrefix("/workspaces").Subrouter()
	picker.Use(middleware.RequireAuth())
	picker.HandleFunc("", c.List).Methods(http.MethodGet)

	tenantRouter := TenantRouter(r, c.app)
	tenantRouter.HandleFunc("/", c.Landing).Methods(http.MethodGet)
	tenantRouter.Handle("/ping", middleware.RequireAuth()(http.HandlerFunc(c.Ping))).Methods(http.MethodGet)
}

// List returns the user's workspaces. With exactly one active workspace it
// selects it and redirects straight into its admin area.
func (c *WorkspaceController) List(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		httpapi.Unauthorized(w)
		return
	}
	workspaces, err := c.workspaceService.ListForUser(r.Context(), u.ID())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if sole := services.SoleActive(workspaces); sole != nil {
		if tc := tenancy.UseContext(r.Context()); tc != nil {
			if err := tc.Set(r.Context(), sole); err != nil {
				WriteServiceError(w, r, err)
				return
			}
		}
		http.Redirect(w, r, "/t/"+sole.Slug()+"/admin", http.StatusSeeOther)
		return
	}

	uploads := configuration.Use().Uploads.URLPrefix
	out := make([]viewmodels.Workspace, 0, len(workspaces))
	for _, ws := range workspaces {
		out = append(out, viewmodels.NewWorkspace(ws.Tenant, ws.Role, uploads))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"workspaces": out})
}

func (c *WorkspaceController) Landing(w http.ResponseWriter, r *http.Request) {
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"workspace": viewmodels.NewTenant(t, configuration.Use().Uploads.URLPrefix),
		"events":    "/t/" + t.Slug() + "/events",
	})
}

// Ping confirms that the signed-in user can reach the workspace.
func (c *WorkspaceController) Ping(w http.ResponseWriter, r *http.Request) {
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"tenant_id": t.ID(), "slug": t.Slug()})
}
