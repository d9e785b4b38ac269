package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/presentation/controllers/dtos"
	"github.com/eventflow/eventflow/modules/core/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

type UsersController struct {
	app         application.Application
	userService *services.UserService
}

func NewUsersController(app application.Application) application.Controller {
	return &UsersController{
		app:         app,
		userService: app.Service(services.UserService{}).(*services.UserService),
	}
}

func (c *UsersController) Key() string {
	return "/t/{tenantSlug}/admin/users"
}

func (c *UsersController) Register(r *mux.Router) {
	router := AdminRouter(r, c.app)
	router.HandleFunc("/users", c.List).Methods(http.MethodGet)
	router.HandleFunc("/users", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}", c.Show).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", c.Update).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/users/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/users/{id}/resend-invite", c.ResendInvite).Methods(http.MethodPost)
}

func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	actor, err := Actor(r)
	if err != nil {
		httpapi.Forbidden(w, "no membership in this workspace")
		return
	}
	members, err := c.userService.ListMembers(r.Context(), actor)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	out := make([]viewmodels.Member, 0, len(members))
	for _, m := range members {
		out = append(out, viewmodels.NewMember(m.User, m.Membership))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"users": out,
		"roles": c.userService.AvailableRoles(actor),
	})
}

func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := Actor(r)
	if err != nil {
		httpapi.Forbidden(w, "no membership in this workspace")
		return
	}
	dto := &dtos.InviteUserDTO{}
	if !Bind(w, r, dto) {
		return
	}
	member, err := c.userService.Invite(r.Context(), actor, services.InviteInput{
		Name:  dto.Name,
		Email: dto.Email,
		Role:  dto.Role,
	})
	var throttled *services.InviteThrottledError
	switch {
	case errors.As(err, &throttled) && member.User != nil:
		_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
			"user":    viewmodels.NewMember(member.User, member.Membership),
			"warning": throttled.Error(),
		})
	case err != nil:
		WriteServiceError(w, r, err)
	default:
		_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
			"user": viewmodels.NewMember(member.User, member.Membership),
		})
	}
}

func (c *UsersController) member(w http.ResponseWriter, r *http.Request) (services.Member, bool) {
	actor, err := Actor(r)
	if err != nil {
		httpapi.Forbidden(w, "no membership in this workspace")
		return services.Member{}, false
	}
	m, err := c.userService.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		WriteServiceError(w, r, err)
		return services.Member{}, false
	}
	return m, true
}

func (c *UsersController) Show(w http.ResponseWriter, r *http.Request) {
	m, ok := c.member(w, r)
	if !ok {
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"user": viewmodels.NewMember(m.User, m.Membership)})
}

func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	target, ok := c.member(w, r)
	if !ok {
		return
	}
	dto := &dtos.UpdateUserDTO{}
	if !Bind(w, r, dto) {
		return
	}
	actor, _ := Actor(r)
	updated, err := c.userService.Update(r.Context(), actor, target, services.UpdateUserInput{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: dto.Password,
		Role:     dto.Role,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"user": viewmodels.NewMember(updated.User, updated.Membership)})
}

func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	target, ok := c.member(w, r)
	if !ok {
		return
	}
	actor, _ := Actor(r)
	if err := c.userService.Revoke(r.Context(), actor, target); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *UsersController) ResendInvite(w http.ResponseWriter, r *http.Request) {
	target, ok := c.member(w, r)
	if !ok {
		return
	}
	actor, _ := Actor(r)
	if err := c.userService.ResendInvite(r.Context(), actor, target); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "invite sent"})
}
