package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/presentation/controllers/dtos"
	"github.com/eventflow/eventflow/modules/core/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/httpapi"
	"github.com/eventflow/eventflow/pkg/middleware"
)

type AuthController struct {
	app         application.Application
	authService *services.AuthService
}

func NewAuthController(app application.Application) application.Controller {
	return &AuthController{
		app:         app,
		authService: app.Service(services.AuthService{}).(*services.AuthService),
	}
}

func (c *AuthController) Key() string {
	return "/login"
}

func (c *AuthController) Register(r *mux.Router) {
	r.HandleFunc("/register", c.PostRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", c.PostLogin).Methods(http.MethodPost)

	authed := r.PathPrefix("/logout").Subrouter()
	authed.Use(middleware.RequireAuth())
	authed.HandleFunc("", c.PostLogout).Methods(http.MethodPost)
}

func (c *AuthController) PostRegister(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.RegisterDTO{}
	if !Bind(w, r, dto) {
		return
	}
	u, t, err := c.authService.Register(r.Context(), services.RegisterInput{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: dto.Password,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	ws := viewmodels.NewWorkspace(t, membership.RoleAdmin, configuration.Use().Uploads.URLPrefix)
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":      viewmodels.NewUser(u),
		"workspace": ws,
		"redirect":  ws.URL,
	})
}

func (c *AuthController) PostLogin(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.LoginDTO{}
	if !Bind(w, r, dto) {
		return
	}
	u, err := c.authService.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"user":     viewmodels.NewUser(u),
		"redirect": "/workspaces",
	})
}

func (c *AuthController) PostLogout(w http.ResponseWriter, r *http.Request) {
	if err := c.authService.Logout(r.Context()); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
