// Package viewmodels holds the JSON shapes returned by the events controllers.
package viewmodels

import (
	"time"

	coreviewmodels "github.com/eventflow/eventflow/modules/core/presentation/viewmodels"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/photo"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/modules/events/services"
)

type Event struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Slug        string                 `json:"slug"`
	Description string                 `json:"description"`
	Location    string                 `json:"location"`
	StartsAt    time.Time              `json:"starts_at"`
	EndsAt      *time.Time             `json:"ends_at,omitempty"`
	Status      string                 `json:"status"`
	IsPublic    bool                   `json:"is_public"`
	Capacity    *int                   `json:"capacity,omitempty"`
	MainPhoto   *coreviewmodels.Images `json:"main_photo,omitempty"`
	URL         string                 `json:"url"`
	CalendarURL string                 `json:"calendar_url"`
}

// EventURL is the public page of e inside the workspace tenantSlug.
func EventURL(tenantSlug string, e *event.Event) string {
	return "/t/" + tenantSlug + "/events/" + e.HashID()
}

func NewEvent(tenantSlug string, e *event.Event, uploadsURL string) Event {
	main := e.MainPhoto()
	url := EventURL(tenantSlug, e)
	return Event{
		ID:          e.HashID(),
		Title:       e.Title(),
		Slug:        e.Slug(),
		Description: e.Description(),
		Location:    e.Location(),
		StartsAt:    e.StartsAt(),
		EndsAt:      e.EndsAt(),
		Status:      string(e.Status()),
		IsPublic:    e.IsPublic(),
		Capacity:    e.Capacity(),
		MainPhoto:   coreviewmodels.NewImages(uploadsURL, main.Original, main.Medium, main.Thumb),
		URL:         url,
		CalendarURL: url + "/calendar.ics",
	}
}

func NewEvents(tenantSlug string, items []*event.Event, uploadsURL string) []Event {
	out := make([]Event, len(items))
	for i, e := range items {
		out[i] = NewEvent(tenantSlug, e, uploadsURL)
	}
	return out
}

type DashboardEntry struct {
	Event
	RSVPCount int `json:"rsvp_count"`
}

func NewDashboard(tenantSlug string, entries []services.DashboardEntry, uploadsURL string) []DashboardEntry {
	out := make([]DashboardEntry, len(entries))
	for i, entry := range entries {
		out[i] = DashboardEntry{Event: NewEvent(tenantSlug, entry.Event, uploadsURL), RSVPCount: entry.RSVPCount}
	}
	return out
}

// Quota reports a limit of -1 for unlimited plans.
type Quota struct {
	Plan      string `json:"plan"`
	Label     string `json:"label"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	CanCreate bool   `json:"can_create"`
}

func NewQuota(q services.Quota) Quota {
	return Quota{
		Plan:      string(q.Plan),
		Label:     q.Label,
		Used:      q.Used,
		Limit:     q.Limit,
		Remaining: q.Remaining,
		CanCreate: q.CanCreate,
	}
}

func NewPhotos(items []*photo.Photo, uploadsURL string) []coreviewmodels.Images {
	out := make([]coreviewmodels.Images, 0, len(items))
	for _, p := range items {
		if img := coreviewmodels.NewImages(uploadsURL, p.Original(), p.Medium(), p.Thumb()); img != nil {
			out = append(out, *img)
		}
	}
	return out
}

type RSVP struct {
	Name                    string    `json:"name"`
	Email                   string    `json:"email"`
	Phone                   string    `json:"phone,omitempty"`
	CommunicationPreference string    `json:"communication_preference"`
	NotificationsScope      string    `json:"notifications_scope"`
	Status                  string    `json:"status"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func NewRSVPs(items []*rsvp.RSVP) []RSVP {
	out := make([]RSVP, len(items))
	for i, v := range items {
		out[i] = RSVP{
			Name:                    v.Name(),
			Email:                   v.Email(),
			Phone:                   v.Phone(),
			CommunicationPreference: string(v.Channel()),
			NotificationsScope:      string(v.Notifications()),
			Status:                  string(v.Status()),
			CreatedAt:               v.CreatedAt(),
			UpdatedAt:               v.UpdatedAt(),
		}
	}
	return out
}
