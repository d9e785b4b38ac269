package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlan(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PlanPlus, NormalizePlan(" Plus "))
	assert.Equal(t, PlanEnterprise, NormalizePlan("enterprise"))
	assert.Equal(t, PlanFree, NormalizePlan(""))
	assert.Equal(t, PlanFree, NormalizePlan("gold"))
}

func TestPlanLimits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Limits{EventsPerMonth: 1, Moderators: 5, Admins: 1, Guests: 100}, PlanFree.Limits())
	assert.Equal(t, 10, PlanPlus.Limits().EventsPerMonth)
	assert.Equal(t, Unlimited, PlanEnterprise.Limits().EventsPerMonth)
	assert.Equal(t, "Enterprise", PlanEnterprise.Label())
	assert.Equal(t, "Free", Plan("unknown").Label())

	assert.True(t, PlanFree.Features().ShowsAds)
	assert.False(t, PlanFree.Features().WhatsApp)
	assert.True(t, PlanPlus.Features().WhatsApp)
}

func TestAllowsAndRemaining(t *testing.T) {
	t.Parallel()

	assert.True(t, Allows(1, 0))
	assert.False(t, Allows(1, 1))
	assert.True(t, Allows(Unlimited, 1_000_000))

	assert.Equal(t, 9, Remaining(10, 1))
	assert.Equal(t, 0, Remaining(1, 5))
	assert.Equal(t, Unlimited, Remaining(Unlimited, 5))
}

func TestTenantDefaults(t *testing.T) {
	t.Parallel()

	tn := New("Acme", WithSlug("acme"))
	assert.True(t, tn.IsActive())
	assert.Equal(t, PlanFree, tn.Plan())
	assert.Equal(t, "acme", tn.Slug())

	tn.SetStatus(StatusInactive)
	assert.False(t, tn.IsActive())
}
