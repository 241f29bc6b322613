package entitlements

import (
	"strconv"
	"strings"

	"github.com/bountyhive/BountyHive/internal/pkg/env"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Unlimited is the sentinel limit value for premium-tier counters.
const Unlimited = -1

// QuotaLimits are the per-billing-period action limits derived from a plan.
type QuotaLimits struct {
	Applications int
	Bounties     int
}

// NormalizePlan maps arbitrary plan strings to a known plan, defaulting to free.
func NormalizePlan(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanPremium):
		return PlanPremium
	default:
		return PlanFree
	}
}

// PlanRank orders plans so the best of several subscriptions wins.
func PlanRank(plan Plan) int {
	switch NormalizePlan(string(plan)) {
	case PlanPremium:
		return 1
	default:
		return 0
	}
}

// LimitsFor returns the quota limits for a plan. Free-tier defaults can be
// tuned via FREE_APPLICATIONS_LIMIT and FREE_BOUNTIES_LIMIT.
func LimitsFor(plan Plan) QuotaLimits {
	if NormalizePlan(string(plan)) == PlanPremium {
		return QuotaLimits{Applications: Unlimited, Bounties: Unlimited}
	}
	return QuotaLimits{
		Applications: envInt("FREE_APPLICATIONS_LIMIT", 3),
		Bounties:     envInt("FREE_BOUNTIES_LIMIT", 2),
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
