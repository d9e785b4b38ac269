package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/permissions"
	"github.com/eventflow/eventflow/modules/core/presentation/controllers/dtos"
	"github.com/eventflow/eventflow/modules/core/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

const logoField = "logo"

type SettingsController struct {
	app           application.Application
	tenantService *services.TenantService
	policy        *permissions.WorkspacePolicy
}

func NewSettingsController(app application.Application) application.Controller {
	return &SettingsController{
		app:           app,
		tenantService: app.Service(services.TenantService{}).(*services.TenantService),
		policy:        app.Service(permissions.WorkspacePolicy{}).(*permissions.WorkspacePolicy),
	}
}

func (c *SettingsController) Key() string {
	return "/t/{tenantSlug}/admin/settings"
}

func (c *SettingsController) Register(r *mux.Router) {
	router := AdminRouter(r, c.app)
	router.HandleFunc("/settings", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/settings", c.Update).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/settings/logo", c.UploadLogo).Methods(http.MethodPost)
}

// authorize returns the current workspace when the actor may edit it.
func (c *SettingsController) authorize(w http.ResponseWriter, r *http.Request) (*tenant.Tenant, bool) {
	actor, err := Actor(r)
	if err != nil || !c.policy.Update(r.Context(), actor) {
		httpapi.Forbidden(w, "only workspace admins can change settings")
		return nil, false
	}
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return nil, false
	}
	return t, true
}

func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := c.authorize(w, r)
	if !ok {
		return
	}
	c.respond(w, http.StatusOK, t)
}

func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := c.authorize(w, r)
	if !ok {
		return
	}
	dto := &dtos.WorkspaceSettingsDTO{}
	if !Bind(w, r, dto) {
		return
	}
	updated, err := c.tenantService.UpdateProfile(r.Context(), t, dto.Name)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	c.respond(w, http.StatusOK, updated)
}

func (c *SettingsController) UploadLogo(w http.ResponseWriter, r *http.Request) {
	t, ok := c.authorize(w, r)
	if !ok {
		return
	}
	maxSize := configuration.Use().Uploads.MaxSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	file, _, err := r.FormFile(logoField)
	if err != nil {
		_ = httpapi.WriteValidation(w, map[string]string{logoField: "this field is required"})
		return
	}
	defer file.Close()

	updated, err := c.tenantService.UpdateLogo(r.Context(), t, file)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	c.respond(w, http.StatusOK, updated)
}

func (c *SettingsController) respond(w http.ResponseWriter, status int, t *tenant.Tenant) {
	_ = httpapi.WriteJSON(w, status, map[string]any{
		"workspace": viewmodels.NewTenant(t, configuration.Use().Uploads.URLPrefix),
		"redirect":  "/t/" + t.Slug() + "/admin/settings",
	})
}
