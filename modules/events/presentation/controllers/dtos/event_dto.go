package dtos

import (
	"strings"
	"time"

	"github.com/eventflow/eventflow/modules/events/services"
	"github.com/eventflow/eventflow/pkg/constants"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

// Accepted layouts for starts_at and ends_at. Values without an offset are
// read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

type EventDTO struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description" validate:"max=10000"`
	Location    string `json:"location" form:"location" validate:"max=255"`
	StartsAt    string `json:"starts_at" form:"starts_at" validate:"required"`
	EndsAt      string `json:"ends_at" form:"ends_at"`
	Status      string `json:"status" form:"status" validate:"omitempty,oneof=draft published canceled"`
	IsPublic    bool   `json:"is_public" form:"is_public"`
	Capacity    *int   `json:"capacity" form:"capacity" validate:"omitempty,min=1"`
}

func (d *EventDTO) Ok() (map[string]string, bool) {
	fields, ok := check(d)
	if fields == nil {
		fields = map[string]string{}
	}
	if _, failed := fields["starts_at"]; !failed && d.StartsAt != "" {
		if _, err := ParseTime(d.StartsAt); err != nil {
			fields["starts_at"] = "must be a date and time"
			ok = false
		}
	}
	if d.EndsAt != "" {
		if _, err := ParseTime(d.EndsAt); err != nil {
			fields["ends_at"] = "must be a date and time"
			ok = false
		}
	}
	if ok {
		return nil, true
	}
	return fields, false
}

// ToInput converts a validated DTO. An empty status publishes the event.
func (d *EventDTO) ToInput() services.EventInput {
	startsAt, _ := ParseTime(d.StartsAt)
	in := services.EventInput{
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		StartsAt:    startsAt,
		Status:      d.Status,
		IsPublic:    d.IsPublic,
		Capacity:    d.Capacity,
	}
	if in.Status == "" {
		in.Status = "published"
	}
	if d.EndsAt != "" {
		endsAt, _ := ParseTime(d.EndsAt)
		in.EndsAt = &endsAt
	}
	return in
}

func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// RSVPDTO carries a guest's answer. The service validates it.
type RSVPDTO struct {
	Name                    string `json:"name" form:"name"`
	Email                   string `json:"email" form:"email"`
	Phone                   string `json:"phone" form:"phone"`
	CommunicationPreference string `json:"communication_preference" form:"communication_preference"`
	NotificationsScope      string `json:"notifications_scope" form:"notifications_scope"`
	Company                 string `json:"company" form:"company"`
	AcceptTerms             bool   `json:"accept_terms" form:"accept_terms"`
}

func (d *RSVPDTO) Ok() (map[string]string, bool) {
	return nil, true
}

func (d *RSVPDTO) ToInput() services.RSVPInput {
	return services.RSVPInput{
		Name:                    strings.TrimSpace(d.Name),
		Email:                   strings.TrimSpace(d.Email),
		Phone:                   d.Phone,
		CommunicationPreference: d.CommunicationPreference,
		NotificationsScope:      d.NotificationsScope,
		Company:                 d.Company,
		AcceptTerms:             d.AcceptTerms,
	}
}

func check(dto any) (map[string]string, bool) {
	err := constants.Validate.Struct(dto)
	if err == nil {
		return nil, true
	}
	fields := httpapi.FieldErrors(err)
	if fields == nil {
		fields = map[string]string{"_": err.Error()}
	}
	return fields, false
}
