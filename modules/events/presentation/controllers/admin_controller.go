package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	corecontrollers "github.com/eventflow/eventflow/modules/core/presentation/controllers"
	coreservices "github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/presentation/controllers/dtos"
	"github.com/eventflow/eventflow/modules/events/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/events/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

const maxStoryPhotos = 20

// EventsController is the staff side of a workspace's events.
type EventsController struct {
	app           application.Application
	tenantService *coreservices.TenantService
	eventService  *services.EventService
	photoService  *services.PhotoService
	planService   *services.PlanService
	rsvpService   *services.RSVPService
}

func NewEventsController(app application.Application) application.Controller {
	return &EventsController{
		app:           app,
		tenantService: app.Service(coreservices.TenantService{}).(*coreservices.TenantService),
		eventService:  app.Service(services.EventService{}).(*services.EventService),
		photoService:  app.Service(services.PhotoService{}).(*services.PhotoService),
		planService:   app.Service(services.PlanService{}).(*services.PlanService),
		rsvpService:   app.Service(services.RSVPService{}).(*services.RSVPService),
	}
}

func (c *EventsController) Key() string {
	return "/t/{tenantSlug}/admin/events"
}

func (c *EventsController) Register(r *mux.Router) {
	router := corecontrollers.AdminRouter(r, c.app)
	router.HandleFunc("/dashboard", c.Dashboard).Methods(http.MethodGet)
	router.HandleFunc("/events", c.List).Methods(http.MethodGet)
	router.HandleFunc("/events", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/events/{hashID}", c.Show).Methods(http.MethodGet)
	router.HandleFunc("/events/{hashID}", c.Update).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/events/{hashID}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/events/{hashID}/main-photo", c.UploadMainPhoto).Methods(http.MethodPost)
	router.HandleFunc("/events/{hashID}/photos", c.UploadStoryPhotos).Methods(http.MethodPost)
	router.HandleFunc("/events/{hashID}/rsvps", c.RSVPs).Methods(http.MethodGet)
}

// scope returns the actor and the current workspace, answering the request
// itself when either is missing.
func (c *EventsController) scope(w http.ResponseWriter, r *http.Request) (*membership.Membership, *tenant.Tenant, bool) {
	actor, err := corecontrollers.Actor(r)
	if err != nil {
		httpapi.Forbidden(w, "no membership in this workspace")
		return nil, nil, false
	}
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return nil, nil, false
	}
	return actor, t, true
}

func (c *EventsController) load(w http.ResponseWriter, r *http.Request) (*membership.Membership, *tenant.Tenant, *event.Event, bool) {
	actor, t, ok := c.scope(w, r)
	if !ok {
		return nil, nil, nil, false
	}
	e, err := c.eventService.GetByHashID(r.Context(), hashID(r))
	if err != nil {
		writeError(w, r, err)
		return nil, nil, nil, false
	}
	return actor, t, e, true
}

func (c *EventsController) respond(w http.ResponseWriter, status int, t *tenant.Tenant, e *event.Event) {
	_ = httpapi.WriteJSON(w, status, map[string]any{
		"event": viewmodels.NewEvent(t.Slug(), e, configuration.Use().Uploads.URLPrefix),
	})
}

func (c *EventsController) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, t, ok := c.scope(w, r)
	if !ok {
		return
	}
	entries, err := c.eventService.Dashboard(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quota, err := c.planService.Quota(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"events": viewmodels.NewDashboard(t.Slug(), entries, configuration.Use().Uploads.URLPrefix),
		"quota":  viewmodels.NewQuota(quota),
	})
}

func (c *EventsController) List(w http.ResponseWriter, r *http.Request) {
	actor, t, ok := c.scope(w, r)
	if !ok {
		return
	}
	page := pageFrom(r)
	items, total, err := c.eventService.ListByCreator(r.Context(), actor, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"events":     viewmodels.NewEvents(t.Slug(), items, configuration.Use().Uploads.URLPrefix),
		"pagination": pagination(page, total, len(items)),
	})
}

// Create accepts JSON or a multipart form with an optional main_photo file.
// A photo that fails to store still leaves the event created.
func (c *EventsController) Create(w http.ResponseWriter, r *http.Request) {
	actor, t, ok := c.scope(w, r)
	if !ok {
		return
	}
	c.limitBody(w, r)
	dto := &dtos.EventDTO{}
	if !corecontrollers.Bind(w, r, dto) {
		return
	}
	var photo io.Reader
	if r.MultipartForm != nil {
		if file, _, err := r.FormFile(mainPhotoField); err == nil {
			defer file.Close()
			photo = file
		}
	}
	e, err := c.eventService.Create(r.Context(), actor, t, dto.ToInput(), photo)
	if err != nil && e == nil {
		writeError(w, r, err)
		return
	}
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("event created without its main photo")
		_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
			"event":   viewmodels.NewEvent(t.Slug(), e, configuration.Use().Uploads.URLPrefix),
			"warning": "the main photo could not be stored",
		})
		return
	}
	c.respond(w, http.StatusCreated, t, e)
}

func (c *EventsController) Show(w http.ResponseWriter, r *http.Request) {
	_, t, e, ok := c.load(w, r)
	if !ok {
		return
	}
	photos, err := c.photoService.ListForEvent(r.Context(), e, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	uploads := configuration.Use().Uploads.URLPrefix
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"event":  viewmodels.NewEvent(t.Slug(), e, uploads),
		"photos": viewmodels.NewPhotos(photos, uploads),
	})
}

func (c *EventsController) Update(w http.ResponseWriter, r *http.Request) {
	actor, t, e, ok := c.load(w, r)
	if !ok {
		return
	}
	dto := &dtos.EventDTO{}
	if !corecontrollers.Bind(w, r, dto) {
		return
	}
	updated, err := c.eventService.Update(r.Context(), actor, e, dto.ToInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respond(w, http.StatusOK, t, updated)
}

func (c *EventsController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _, e, ok := c.load(w, r)
	if !ok {
		return
	}
	if err := c.eventService.Delete(r.Context(), actor, e); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *EventsController) UploadMainPhoto(w http.ResponseWriter, r *http.Request) {
	actor, t, e, ok := c.load(w, r)
	if !ok {
		return
	}
	c.limitBody(w, r)
	file, _, err := r.FormFile(mainPhotoField)
	if err != nil {
		_ = httpapi.WriteValidation(w, map[string]string{mainPhotoField: "this field is required"})
		return
	}
	defer file.Close()
	updated, err := c.photoService.UpdateMainPhoto(r.Context(), actor, e, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respond(w, http.StatusOK, t, updated)
}

func (c *EventsController) UploadStoryPhotos(w http.ResponseWriter, r *http.Request) {
	actor, _, e, ok := c.load(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxStoryPhotos*configuration.Use().Uploads.MaxSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = httpapi.WriteValidation(w, map[string]string{storyPhotoField: "upload is too large"})
			return
		}
		httpapi.BadRequest(w, "expected a multipart form")
		return
	}
	headers := r.MultipartForm.File[storyPhotoField]
	switch {
	case len(headers) == 0:
		_ = httpapi.WriteValidation(w, map[string]string{storyPhotoField: "this field is required"})
		return
	case len(headers) > maxStoryPhotos:
		_ = httpapi.WriteValidation(w, map[string]string{storyPhotoField: "too many files"})
		return
	}
	files, err := openAll(headers)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	if err != nil {
		httpapi.BadRequest(w, "could not read the uploaded files")
		return
	}
	readers := make([]io.Reader, len(files))
	for i, f := range files {
		readers[i] = f
	}
	photos, err := c.photoService.AddStoryPhotos(r.Context(), actor, e, readers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"photos": viewmodels.NewPhotos(photos, configuration.Use().Uploads.URLPrefix),
	})
}

func (c *EventsController) RSVPs(w http.ResponseWriter, r *http.Request) {
	_, _, e, ok := c.load(w, r)
	if !ok {
		return
	}
	items, err := c.rsvpService.List(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"rsvps": viewmodels.NewRSVPs(items)})
}

func (c *EventsController) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, configuration.Use().Uploads.MaxSize+1<<20)
}

func openAll(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}
