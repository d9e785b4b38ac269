package handlers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/pkg/eventbus"
)

// InviteHandler turns InvitedEvent into an outgoing set-password message.
// Delivery is handled outside this service; the message is logged.
type InviteHandler struct {
	tenants tenant.Repository
	origin  string
	logger  logrus.FieldLogger
}

func RegisterInviteHandler(bus eventbus.EventBus, tenants tenant.Repository, origin string, logger logrus.FieldLogger) *InviteHandler {
	h := &InviteHandler{tenants: tenants, origin: origin, logger: logger}
	bus.Subscribe(h.OnInvited)
	return h
}

// Message is what would be handed to the mailer.
type Message struct {
	To      string
	Subject string
	Link    string
}

func (h *InviteHandler) Build(ctx context.Context, event *user.InvitedEvent) (Message, error) {
	workspace := "EventFlow"
	if event.TenantID > 0 {
		t, err := h.tenants.GetByID(ctx, event.TenantID)
		if err != nil {
			return Message{}, err
		}
		workspace = t.Name()
	}
	link := fmt.Sprintf("%s/set-password?email=%s", h.origin, url.QueryEscape(event.Email.String()))
	return Message{
		To:      event.Email.String(),
		Subject: fmt.Sprintf("You have been invited to %s", workspace),
		Link:    link,
	}, nil
}

func (h *InviteHandler) OnInvited(ctx context.Context, event *user.InvitedEvent) {
	msg, err := h.Build(ctx, event)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", event.UserID).Warn("failed to build invite message")
		return
	}
	h.logger.WithFields(logrus.Fields{
		"tenant_id":  event.TenantID,
		"user_id":    event.UserID,
		"invited_by": event.InvitedBy,
		"to":         msg.To,
		"subject":    msg.Subject,
	}).Info("set-password link dispatched")
}
