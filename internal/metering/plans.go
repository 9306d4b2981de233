package metering

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientCredits is returned when a batch would exceed the
	// account's remaining monthly credits.
	ErrInsufficientCredits = errors.New("not enough credits")

	// ErrUnknownPlan is returned for a plan name that matches no tier.
	ErrUnknownPlan = errors.New("unknown plan")
)

// Plan is a subscription tier with a monthly credit allowance.
// One credit enhances one image.
type Plan struct {
	// ID is the stable key stored with an account: "free", "level1", "level2".
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Credits is the monthly allowance. Ignored when Unlimited is set.
	Credits int `json:"credits"`

	Unlimited bool `json:"unlimited"`
}

// Built-in tiers.
var (
	PlanFree   = Plan{ID: "free", Name: "Free", Credits: 10}
	PlanLevel1 = Plan{ID: "level1", Name: "Level 1", Credits: 100}
	PlanLevel2 = Plan{ID: "level2", Name: "Level 2", Unlimited: true}
)

// Plans lists the tiers from smallest to largest.
func Plans() []Plan {
	return []Plan{PlanFree, PlanLevel1, PlanLevel2}
}

// LookupPlan finds a tier by ID or display name. Matching ignores case,
// spaces, hyphens and underscores, so "Level 1", "level_1" and "LEVEL1" all
// resolve to PlanLevel1.
func LookupPlan(name string) (Plan, error) {
	key := planKey(name)
	for _, p := range Plans() {
		if key == p.ID || key == planKey(p.Name) {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
}

// Allows reports whether n more images fit after used have been consumed.
func (p Plan) Allows(used, n int) bool {
	return p.Unlimited || used+n <= p.Credits
}

// Remaining returns the credits left after used, never negative.
// Unlimited plans report -1.
func (p Plan) Remaining(used int) int {
	if p.Unlimited {
		return -1
	}
	if used >= p.Credits {
		return 0
	}
	return p.Credits - used
}

func planKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
