package quota

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/entitlements"
)

// ActionKind names the quota-gated actions.
type ActionKind string

const (
	ActionApply        ActionKind = "apply"
	ActionCreateBounty ActionKind = "create_bounty"
)

// ParseActionKind validates an action kind coming from the API layer.
func ParseActionKind(raw string) (ActionKind, error) {
	switch ActionKind(raw) {
	case ActionApply, ActionCreateBounty:
		return ActionKind(raw), nil
	default:
		return "", apperr.Validation("unknown quota action %q", raw)
	}
}

// Service enforces per-billing-period usage limits derived from the user's
// current plan. A failed plan lookup denies the action (fail closed).
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a quota service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a quota service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// CanAct reports whether the user may perform the action in the current
// billing period. Limits are derived from the plan at read time, so a tier
// upgrade takes effect without resetting counters.
func (s *Service) CanAct(ctx context.Context, userID uint, kind ActionKind) (bool, error) {
	_ = ctx
	if userID == 0 {
		return false, apperr.Validation("user id is required")
	}

	plan, err := s.repo.GetUserPlan(userID)
	if err != nil {
		// Fail closed: a broken tier lookup must never grant unlimited access.
		return false, err
	}
	limits := entitlements.LimitsFor(entitlements.NormalizePlan(plan))

	limit := limits.Applications
	if kind == ActionCreateBounty {
		limit = limits.Bounties
	}
	if limit == entitlements.Unlimited {
		return true, nil
	}

	used := 0
	usage, err := s.repo.GetUsage(userID, models.PeriodKeyFor(s.now()))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if usage != nil {
		used = usage.ApplicationsUsed
		if kind == ActionCreateBounty {
			used = usage.BountiesCreated
		}
	}
	return used < limit, nil
}

// RecordUsage increments the action counter for the current billing period,
// creating the period row on first use with limits snapshotted from the plan.
func (s *Service) RecordUsage(ctx context.Context, userID uint, kind ActionKind) error {
	_ = ctx
	if userID == 0 {
		return apperr.Validation("user id is required")
	}

	periodKey := models.PeriodKeyFor(s.now())
	if err := s.ensurePeriodRow(userID, periodKey); err != nil {
		return err
	}

	column := "applications_used"
	if kind == ActionCreateBounty {
		column = "bounties_created"
	}
	return s.repo.IncrementCounter(userID, periodKey, column)
}

// AddEarnings accumulates released creator earnings on the current period row.
func (s *Service) AddEarnings(ctx context.Context, userID uint, cents int64) error {
	_ = ctx
	if userID == 0 || cents <= 0 {
		return apperr.Validation("user id and a positive amount are required")
	}

	periodKey := models.PeriodKeyFor(s.now())
	if err := s.ensurePeriodRow(userID, periodKey); err != nil {
		return err
	}
	return s.repo.AddEarnings(userID, periodKey, cents)
}

// Usage returns the current period row with the limit snapshot refreshed from
// the user's current plan so stale stored limits are never surfaced.
func (s *Service) Usage(ctx context.Context, userID uint) (*models.SubscriptionUsage, error) {
	_ = ctx
	plan, err := s.repo.GetUserPlan(userID)
	if err != nil {
		return nil, err
	}
	limits := entitlements.LimitsFor(entitlements.NormalizePlan(plan))

	periodKey := models.PeriodKeyFor(s.now())
	usage, err := s.repo.GetUsage(userID, periodKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		usage = &models.SubscriptionUsage{UserID: userID, PeriodKey: periodKey}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	usage.ApplicationsLimit = limits.Applications
	usage.BountiesLimit = limits.Bounties
	return usage, nil
}

func (s *Service) ensurePeriodRow(userID uint, periodKey string) error {
	plan, err := s.repo.GetUserPlan(userID)
	if err != nil {
		return err
	}
	limits := entitlements.LimitsFor(entitlements.NormalizePlan(plan))

	return s.repo.EnsureUsage(&models.SubscriptionUsage{
		UserID:            userID,
		PeriodKey:         periodKey,
		ApplicationsLimit: limits.Applications,
		BountiesLimit:     limits.Bounties,
	})
}
