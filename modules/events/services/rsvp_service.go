package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/constants"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// RSVPInput is a guest's answer from the public event page. Company is a
// honeypot and must stay empty.
type RSVPInput struct {
	Name                    string `validate:"required,max=255"`
	Email                   string `validate:"required,email,max=255"`
	Phone                   string `validate:"max=32"`
	CommunicationPreference string `validate:"required,oneof=email whatsapp sms"`
	NotificationsScope      string `validate:"required,oneof=event_only workspace platform"`
	Company                 string `validate:"max=0"`
	AcceptTerms             bool
}

var rsvpFieldKeys = map[string]string{
	"Name":                    "name",
	"Email":                   "email",
	"Phone":                   "phone",
	"CommunicationPreference": "communication_preference",
	"NotificationsScope":      "notifications_scope",
	"Company":                 "company",
}

var rsvpMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"max":      "is too long",
	"oneof":    "is not a valid option",
}

type RSVPService struct {
	rsvps    rsvp.Repository
	inTx     composables.TxFunc
	termsURL string
}

// NewRSVPService requires accepting the terms when termsURL is set.
func NewRSVPService(rsvps rsvp.Repository, inTx composables.TxFunc, termsURL string) *RSVPService {
	return &RSVPService{rsvps: rsvps, inTx: inTx, termsURL: termsURL}
}

func (s *RSVPService) validate(in RSVPInput) error {
	verr := &ValidationError{}
	if err := constants.Validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			msg, ok := rsvpMessages[fe.Tag()]
			if !ok {
				msg = "is invalid"
			}
			if fe.Field() == "Company" {
				msg = "must be empty"
			}
			verr.add(rsvpFieldKeys[fe.Field()], msg)
		}
	}
	if rsvp.Channel(in.CommunicationPreference).NeedsPhone() && strings.TrimSpace(in.Phone) == "" {
		verr.add("phone", "is required for "+in.CommunicationPreference)
	}
	if s.termsURL != "" && !in.AcceptTerms {
		verr.add("accept_terms", "must be accepted")
	}
	return verr.orNil()
}

// Submit records or refreshes the guest's answer for e. The event has to be
// listed and owned by the request's tenant; anything else reads as not
// found. created is false when an answer for the same email was updated.
func (s *RSVPService) Submit(ctx context.Context, e *event.Event, in RSVPInput) (created bool, err error) {
	scope := tenancy.FromContext(ctx)
	if !scope.Allows(e.TenantID()) || !scope.Resolved() || !e.IsListed() {
		return false, ErrEventNotFound
	}
	if err := s.validate(in); err != nil {
		return false, err
	}
	v := rsvp.New(e.ID(), in.Name, in.Email,
		rsvp.WithPhone(strings.TrimSpace(in.Phone)),
		rsvp.WithChannel(rsvp.Channel(in.CommunicationPreference)),
		rsvp.WithNotifications(rsvp.NotificationScope(in.NotificationsScope)),
	)
	err = s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.rsvps.Upsert(txCtx, tenancy.FromContext(txCtx), v)
		return err
	})
	if err != nil {
		return false, err
	}
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"event_id": e.ID(),
		"created":  created,
	}).Info("rsvp recorded")
	return created, nil
}

// List returns the answers recorded for e in the current tenant.
func (s *RSVPService) List(ctx context.Context, e *event.Event) ([]*rsvp.RSVP, error) {
	return s.rsvps.ListByEvent(ctx, tenancy.FromContext(ctx), e.ID())
}
