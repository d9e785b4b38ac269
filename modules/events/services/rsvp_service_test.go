package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
)

func validRSVP() RSVPInput {
	return RSVPInput{
		Name:                    "Ana",
		Email:                   "Ana@Example.com",
		CommunicationPreference: "email",
		NotificationsScope:      "event_only",
	}
}

func TestRSVPService_SubmitUpserts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	e, err := f.eventSvc.Create(ctx, actor(tn, 10, membership.RoleAdmin), tn, input("Alpha", f.now), nil)
	require.NoError(t, err)

	created, err := f.rsvpService.Submit(ctx, e, validRSVP())
	require.NoError(t, err)
	assert.True(t, created)

	again := validRSVP()
	again.Email = "ana@example.COM"
	again.CommunicationPreference = "sms"
	again.Phone = "+351 900 000 000"
	created, err = f.rsvpService.Submit(ctx, e, again)
	require.NoError(t, err)
	assert.False(t, created, "same email updates the answer")

	items, err := f.rsvpService.List(ctx, e)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ana@example.com", items[0].Email())
	assert.Equal(t, rsvp.ChannelSMS, items[0].Channel())
	assert.Equal(t, int64(1), items[0].TenantID())
}

func TestRSVPService_SubmitRequiresListedEventOfCurrentTenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a, b := newTenant(1, tenant.PlanEnterprise), newTenant(2, tenant.PlanEnterprise)
	ctxA := tenantCtx(t, a)
	admin := actor(a, 10, membership.RoleAdmin)

	listed, err := f.eventSvc.Create(ctxA, admin, a, input("Listed", f.now), nil)
	require.NoError(t, err)
	draftIn := input("Draft", f.now)
	draftIn.Status = "draft"
	draft, err := f.eventSvc.Create(ctxA, admin, a, draftIn, nil)
	require.NoError(t, err)
	privateIn := input("Private", f.now)
	privateIn.IsPublic = false
	private, err := f.eventSvc.Create(ctxA, admin, a, privateIn, nil)
	require.NoError(t, err)

	_, err = f.rsvpService.Submit(ctxA, draft, validRSVP())
	require.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.rsvpService.Submit(ctxA, private, validRSVP())
	require.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.rsvpService.Submit(tenantCtx(t, b), listed, validRSVP())
	require.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.rsvpService.Submit(tenantCtx(t, nil), listed, validRSVP())
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestRSVPService_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		terms  string
		mutate func(in *RSVPInput)
		field  string
	}{
		{"missing name", "", func(in *RSVPInput) { in.Name = "" }, "name"},
		{"bad email", "", func(in *RSVPInput) { in.Email = "nope" }, "email"},
		{"unknown channel", "", func(in *RSVPInput) { in.CommunicationPreference = "pigeon" }, "communication_preference"},
		{"unknown scope", "", func(in *RSVPInput) { in.NotificationsScope = "galaxy" }, "notifications_scope"},
		{"whatsapp without phone", "", func(in *RSVPInput) { in.CommunicationPreference = "whatsapp" }, "phone"},
		{"sms without phone", "", func(in *RSVPInput) { in.CommunicationPreference = "sms"; in.Phone = "  " }, "phone"},
		{"honeypot filled", "", func(in *RSVPInput) { in.Company = "Spam Inc" }, "company"},
		{"terms not accepted", "https://example.com/terms", func(*RSVPInput) {}, "accept_terms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewRSVPService(nil, passthroughTx, tc.terms)
			in := validRSVP()
			tc.mutate(&in)

			var verr *ValidationError
			require.ErrorAs(t, svc.validate(in), &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	svc := NewRSVPService(nil, passthroughTx, "https://example.com/terms")
	in := validRSVP()
	in.AcceptTerms = true
	assert.NoError(t, svc.validate(in))
}
