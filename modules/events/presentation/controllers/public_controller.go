package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	corecontrollers "github.com/eventflow/eventflow/modules/core/presentation/controllers"
	coreservices "github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/modules/events/presentation/controllers/dtos"
	"github.com/eventflow/eventflow/modules/events/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/events/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

const storyPhotosOnPage = 24

// PublicEventsController serves a workspace's public event pages and
// takes guest RSVPs.
type PublicEventsController struct {
	app           application.Application
	tenantService *coreservices.TenantService
	eventService  *services.EventService
	photoService  *services.PhotoService
	rsvpService   *services.RSVPService
}

func NewPublicEventsController(app application.Application) application.Controller {
	return &PublicEventsController{
		app:           app,
		tenantService: app.Service(coreservices.TenantService{}).(*coreservices.TenantService),
		eventService:  app.Service(services.EventService{}).(*services.EventService),
		photoService:  app.Service(services.PhotoService{}).(*services.PhotoService),
		rsvpService:   app.Service(services.RSVPService{}).(*services.RSVPService),
	}
}

func (c *PublicEventsController) Key() string {
	return "/t/{tenantSlug}/events"
}

func (c *PublicEventsController) Register(r *mux.Router) {
	router := corecontrollers.TenantRouter(r, c.app)
	router.HandleFunc("/events", c.List).Methods(http.MethodGet)
	router.HandleFunc("/events/{hashID}", c.Show).Methods(http.MethodGet)
	router.HandleFunc("/events/{hashID}/rsvp", c.RSVP).Methods(http.MethodPost)
	router.HandleFunc("/events/{hashID}/calendar.ics", c.Calendar).Methods(http.MethodGet)
}

func (c *PublicEventsController) List(w http.ResponseWriter, r *http.Request) {
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := pageFrom(r)
	items, total, err := c.eventService.ListPublic(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"events":     viewmodels.NewEvents(t.Slug(), items, configuration.Use().Uploads.URLPrefix),
		"pagination": pagination(page, total, len(items)),
	})
}

// viewerID is 0 for guests and for users outside the workspace.
func viewerID(r *http.Request) int64 {
	if _, err := composables.UseMembership(r.Context()); err != nil {
		return 0
	}
	u, err := composables.UseUser(r.Context())
	if err != nil {
		return 0
	}
	return u.ID()
}

func (c *PublicEventsController) Show(w http.ResponseWriter, r *http.Request) {
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := c.eventService.GetVisible(r.Context(), viewerID(r), hashID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	photos, err := c.photoService.ListForEvent(r.Context(), e, storyPhotosOnPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	conf := configuration.Use()
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"event":        viewmodels.NewEvent(t.Slug(), e, conf.Uploads.URLPrefix),
		"photos":       viewmodels.NewPhotos(photos, conf.Uploads.URLPrefix),
		"accepts_rsvp": e.IsListed(),
		"terms_url":    conf.TermsURL,
	})
}

func (c *PublicEventsController) RSVP(w http.ResponseWriter, r *http.Request) {
	e, err := c.eventService.GetByHashID(r.Context(), hashID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	dto := &dtos.RSVPDTO{}
	if !corecontrollers.Bind(w, r, dto) {
		return
	}
	created, err := c.rsvpService.Submit(r.Context(), e, dto.ToInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	_ = httpapi.WriteJSON(w, status, map[string]any{"created": created})
}

func (c *PublicEventsController) Calendar(w http.ResponseWriter, r *http.Request) {
	t, err := c.tenantService.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := c.eventService.GetVisible(r.Context(), viewerID(r), hashID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	origin := strings.TrimRight(configuration.Use().Origin, "/")
	body := services.Calendar(e, t.Name(), origin+viewmodels.EventURL(t.Slug(), e), origin)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.CalendarFileName(e)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
