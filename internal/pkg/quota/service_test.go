package quota

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
)

type fakeQuotaRepo struct {
	plans   map[uint]string
	planErr error
	usage   map[string]*models.SubscriptionUsage
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{
		plans: make(map[uint]string),
		usage: make(map[string]*models.SubscriptionUsage),
	}
}

func (r *fakeQuotaRepo) key(userID uint, periodKey string) string {
	return fmt.Sprintf("%d/%s", userID, periodKey)
}

func (r *fakeQuotaRepo) GetUserPlan(userID uint) (string, error) {
	if r.planErr != nil {
		return "", r.planErr
	}
	if plan, ok := r.plans[userID]; ok {
		return plan, nil
	}
	return "free", nil
}

func (r *fakeQuotaRepo) GetUsage(userID uint, periodKey string) (*models.SubscriptionUsage, error) {
	if u, ok := r.usage[r.key(userID, periodKey)]; ok && u.UserID == userID {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuotaRepo) EnsureUsage(usage *models.SubscriptionUsage) error {
	k := r.key(usage.UserID, usage.PeriodKey)
	if existing, ok := r.usage[k]; ok && existing.UserID == usage.UserID {
		*usage = *existing
		return nil
	}
	usage.ID = uint(len(r.usage) + 1)
	cp := *usage
	r.usage[k] = &cp
	return nil
}

func (r *fakeQuotaRepo) IncrementCounter(userID uint, periodKey, column string) error {
	u, ok := r.usage[r.key(userID, periodKey)]
	if !ok || u.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	switch column {
	case "applications_used":
		u.ApplicationsUsed++
	case "bounties_created":
		u.BountiesCreated++
	default:
		return errors.New("unknown counter column " + column)
	}
	return nil
}

func (r *fakeQuotaRepo) AddEarnings(userID uint, periodKey string, cents int64) error {
	u, ok := r.usage[r.key(userID, periodKey)]
	if !ok || u.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	u.TotalEarningsCents += cents
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCanActFreeTierLimit(t *testing.T) {
	repo := newFakeQuotaRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	// Free tier allows 2 bounties per period by default.
	for i := 0; i < 2; i++ {
		ok, err := svc.CanAct(ctx, 1, ActionCreateBounty)
		if err != nil || !ok {
			t.Fatalf("bounty %d: CanAct = %v, %v; want allowed", i+1, ok, err)
		}
		if err := svc.RecordUsage(ctx, 1, ActionCreateBounty); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}

	ok, err := svc.CanAct(ctx, 1, ActionCreateBounty)
	if err != nil {
		t.Fatalf("CanAct after limit: %v", err)
	}
	if ok {
		t.Fatalf("third bounty allowed on the free tier, want denied")
	}

	// The application counter is independent of the bounty counter.
	ok, err = svc.CanAct(ctx, 1, ActionApply)
	if err != nil || !ok {
		t.Fatalf("CanAct(apply) = %v, %v; want allowed", ok, err)
	}
}

func TestUpgradeMidPeriodLiftsLimit(t *testing.T) {
	repo := newFakeQuotaRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.RecordUsage(ctx, 1, ActionCreateBounty); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}
	if ok, _ := svc.CanAct(ctx, 1, ActionCreateBounty); ok {
		t.Fatalf("free tier over limit still allowed")
	}

	// Limits are derived from the plan at read time, so an upgrade takes
	// effect immediately without touching the period counters.
	repo.plans[1] = "premium"
	ok, err := svc.CanAct(ctx, 1, ActionCreateBounty)
	if err != nil || !ok {
		t.Fatalf("CanAct after upgrade = %v, %v; want allowed", ok, err)
	}

	// And a downgrade re-applies the free limit against the same counters.
	repo.plans[1] = "free"
	if ok, _ := svc.CanAct(ctx, 1, ActionCreateBounty); ok {
		t.Fatalf("downgraded user over limit still allowed")
	}
}

func TestCanActFailsClosedOnPlanLookupError(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.planErr = errors.New("settings table unavailable")
	svc := newTestService(repo)

	ok, err := svc.CanAct(context.Background(), 1, ActionCreateBounty)
	if err == nil {
		t.Fatalf("expected the plan lookup error to propagate")
	}
	if ok {
		t.Fatalf("broken plan lookup granted access, want fail closed")
	}
}

func TestCanActWithoutUsageRowCountsZero(t *testing.T) {
	repo := newFakeQuotaRepo()
	svc := newTestService(repo)

	// No period row exists yet; a missing row means zero usage, not an error.
	ok, err := svc.CanAct(context.Background(), 1, ActionApply)
	if err != nil {
		t.Fatalf("CanAct: %v", err)
	}
	if !ok {
		t.Fatalf("first action of the period denied")
	}
}

func TestCanActValidatesUserID(t *testing.T) {
	svc := newTestService(newFakeQuotaRepo())

	_, err := svc.CanAct(context.Background(), 0, ActionApply)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestAddEarningsAccumulates(t *testing.T) {
	repo := newFakeQuotaRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if err := svc.AddEarnings(ctx, 7, 5_000); err != nil {
		t.Fatalf("AddEarnings: %v", err)
	}
	if err := svc.AddEarnings(ctx, 7, 2_500); err != nil {
		t.Fatalf("AddEarnings: %v", err)
	}

	usage, err := svc.Usage(ctx, 7)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.TotalEarningsCents != 7_500 {
		t.Fatalf("earnings = %d, want 7500", usage.TotalEarningsCents)
	}

	if err := svc.AddEarnings(ctx, 7, 0); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("zero amount kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestUsageRefreshesLimitSnapshot(t *testing.T) {
	repo := newFakeQuotaRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if err := svc.RecordUsage(ctx, 1, ActionCreateBounty); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	repo.plans[1] = "premium"

	usage, err := svc.Usage(ctx, 1)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.BountiesCreated != 1 {
		t.Fatalf("bounties created = %d, want 1", usage.BountiesCreated)
	}
	// The stored snapshot is stale; the surfaced limits follow the current plan.
	if usage.BountiesLimit != -1 || usage.ApplicationsLimit != -1 {
		t.Fatalf("limits = %d/%d, want unlimited sentinel", usage.BountiesLimit, usage.ApplicationsLimit)
	}
}

func TestParseActionKind(t *testing.T) {
	if _, err := ParseActionKind("apply"); err != nil {
		t.Fatalf("ParseActionKind(apply): %v", err)
	}
	if _, err := ParseActionKind("create_bounty"); err != nil {
		t.Fatalf("ParseActionKind(create_bounty): %v", err)
	}
	if _, err := ParseActionKind("delete_everything"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("unknown action kind not rejected as validation error")
	}
}
