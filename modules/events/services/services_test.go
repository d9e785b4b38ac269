package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/events/permissions"
	"github.com/eventflow/eventflow/modules/events/testhelpers"
	"github.com/eventflow/eventflow/pkg/authz"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	events *testhelpers.EventRepository
	photos *testhelpers.PhotoRepository
	rsvps  *testhelpers.RSVPRepository
	fs     afero.Fs
	now    time.Time

	plans       *PlanService
	photoSvc    *PhotoService
	eventSvc    *EventService
	rsvpService *RSVPService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		events: testhelpers.NewEventRepository(),
		photos: testhelpers.NewPhotoRepository(),
		rsvps:  testhelpers.NewRSVPRepository(),
		fs:     afero.NewMemMapFs(),
		now:    time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	policy := permissions.NewEventPolicy(authz.MustNew(authz.ModeEnforce, nil))

	f.plans = NewPlanService(f.events)
	f.plans.now = clock
	f.photoSvc = NewPhotoService(f.events, f.photos, imaging.NewStore(f.fs, 0), policy, passthroughTx)
	f.eventSvc = NewEventService(f.events, f.rsvps, f.plans, f.photoSvc, policy, opaqueid.MustNew(opaqueid.Options{}), passthroughTx)
	f.eventSvc.now = clock
	f.rsvpService = NewRSVPService(f.rsvps, passthroughTx, "")
	return f
}

func newTenant(id int64, plan tenant.Plan) *tenant.Tenant {
	return tenant.New("Workspace", tenant.WithID(id), tenant.WithSlug("workspace"), tenant.WithPlan(plan))
}

func actor(tn *tenant.Tenant, userID int64, role membership.Role) *membership.Membership {
	return membership.New(userID, role, membership.WithTenantID(tn.ID()))
}

// tenantCtx carries a tenant context without a session.
func tenantCtx(t *testing.T, current *tenant.Tenant) context.Context {
	t.Helper()
	ctx := context.Background()
	tc := tenancy.NewContext(nil, nil)
	ctx = tenancy.WithContext(ctx, tc)
	if current != nil {
		require.NoError(t, tc.Set(ctx, current))
	}
	return ctx
}

func pngReader(t *testing.T) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30))))
	return bytes.NewReader(buf.Bytes())
}

func input(title string, startsAt time.Time) EventInput {
	return EventInput{Title: title, StartsAt: startsAt, Status: "published", IsPublic: true}
}
