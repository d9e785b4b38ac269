package tenant

import "strings"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPlus       Plan = "plus"
	PlanEnterprise Plan = "enterprise"
)

// Unlimited marks a limit without a ceiling.
const Unlimited = -1

type Limits struct {
	EventsPerMonth int
	Moderators     int
	Admins         int
	Guests         int
}

type Features struct {
	ShowsAds bool
	Tasks    bool
	WhatsApp bool
}

var plans = map[Plan]struct {
	label    string
	limits   Limits
	features Features
}{
	PlanFree: {
		label:    "Free",
		limits:   Limits{EventsPerMonth: 1, Moderators: 5, Admins: 1, Guests: 100},
		features: Features{ShowsAds: true, Tasks: true},
	},
	PlanPlus: {
		label:    "Plus",
		limits:   Limits{EventsPerMonth: 10, Moderators: 50, Admins: 10, Guests: Unlimited},
		features: Features{Tasks: true, WhatsApp: true},
	},
	PlanEnterprise: {
		label:    "Enterprise",
		limits:   Limits{EventsPerMonth: Unlimited, Moderators: Unlimited, Admins: Unlimited, Guests: Unlimited},
		features: Features{Tasks: true, WhatsApp: true},
	},
}

// NormalizePlan maps unknown or empty values onto the free plan.
func NormalizePlan(raw string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := plans[p]; ok {
		return p
	}
	return PlanFree
}

func (p Plan) Label() string {
	return plans[NormalizePlan(string(p))].label
}

func (p Plan) Limits() Limits {
	return plans[NormalizePlan(string(p))].limits
}

func (p Plan) Features() Features {
	return plans[NormalizePlan(string(p))].features
}

// Allows reports whether used stays within limit after one more item.
func Allows(limit, used int) bool {
	return limit == Unlimited || used < limit
}

// Remaining returns how many items are left under limit, or Unlimited.
func Remaining(limit, used int) int {
	if limit == Unlimited {
		return Unlimited
	}
	return max(0, limit-used)
}
