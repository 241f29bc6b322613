package payout

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/gateway"
)

type fakePayoutRepo struct {
	accounts map[uint]*models.PayoutAccount
	nextID   uint
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{accounts: make(map[uint]*models.PayoutAccount)}
}

func (r *fakePayoutRepo) GetByUserID(userID uint) (*models.PayoutAccount, error) {
	if acc, ok := r.accounts[userID]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePayoutRepo) Create(account *models.PayoutAccount) error {
	r.nextID++
	account.ID = r.nextID
	cp := *account
	r.accounts[account.UserID] = &cp
	return nil
}

func (r *fakePayoutRepo) Save(account *models.PayoutAccount) error {
	cp := *account
	r.accounts[account.UserID] = &cp
	return nil
}

type fakeAccountGateway struct {
	gateway.Client

	createCalls int
	status      gateway.AccountStatus
	getErr      error
}

func (g *fakeAccountGateway) CreateAccount(ctx context.Context, email, country string) (string, error) {
	g.createCalls++
	return "acct_test_1", nil
}

func (g *fakeAccountGateway) GetAccount(ctx context.Context, accountID string) (*gateway.AccountStatus, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	st := g.status
	st.AccountID = accountID
	return &st, nil
}

func TestOnboardCreatesAccountOnce(t *testing.T) {
	repo := newFakePayoutRepo()
	gw := &fakeAccountGateway{status: gateway.AccountStatus{DetailsSubmitted: false}}
	svc := NewService(repo, gw)
	ctx := context.Background()

	snap, err := svc.Onboard(ctx, 1, "creator@example.com", "de")
	if err != nil {
		t.Fatalf("Onboard: %v", err)
	}
	if !snap.HasPayoutAccount {
		t.Fatalf("snapshot has no payout account after onboarding")
	}
	if snap.PayoutsEnabled {
		t.Fatalf("payouts enabled before the gateway verified the account")
	}

	// Second onboarding call refreshes the existing account.
	gw.status = gateway.AccountStatus{PayoutsEnabled: true, ChargesEnabled: true, DetailsSubmitted: true}
	snap, err = svc.Onboard(ctx, 1, "creator@example.com", "de")
	if err != nil {
		t.Fatalf("repeat Onboard: %v", err)
	}
	if gw.createCalls != 1 {
		t.Fatalf("gateway account created %d times, want 1", gw.createCalls)
	}
	if !snap.PayoutsEnabled {
		t.Fatalf("refreshed snapshot missing the enabled flag")
	}

	acc := repo.accounts[1]
	if acc.Country != "DE" {
		t.Fatalf("country = %q, want normalized DE", acc.Country)
	}
	if acc.LastSyncedAt == nil {
		t.Fatalf("sync timestamp not persisted")
	}
}

func TestOnboardValidatesInput(t *testing.T) {
	svc := NewService(newFakePayoutRepo(), &fakeAccountGateway{})
	ctx := context.Background()

	if _, err := svc.Onboard(ctx, 0, "creator@example.com", "de"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing user id kind = %v, want validation", apperr.KindOf(err))
	}
	if _, err := svc.Onboard(ctx, 1, "  ", "de"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing email kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestCheckEligibilityWithoutAccount(t *testing.T) {
	svc := NewService(newFakePayoutRepo(), &fakeAccountGateway{})

	snap, err := svc.CheckEligibility(context.Background(), 42)
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if snap.HasPayoutAccount || snap.PayoutsEnabled {
		t.Fatalf("creator without an account reported eligible: %+v", snap)
	}
}

func TestCheckEligibilityPullsFreshFlags(t *testing.T) {
	repo := newFakePayoutRepo()
	gw := &fakeAccountGateway{}
	svc := NewService(repo, gw)
	ctx := context.Background()

	if _, err := svc.Onboard(ctx, 1, "creator@example.com", "de"); err != nil {
		t.Fatalf("Onboard: %v", err)
	}

	// The gateway flips the capability asynchronously; the next check must
	// see it without any local write in between.
	gw.status = gateway.AccountStatus{PayoutsEnabled: true, ChargesEnabled: true, DetailsSubmitted: true}
	snap, err := svc.CheckEligibility(ctx, 1)
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if !snap.PayoutsEnabled || !snap.ChargesEnabled || !snap.DetailsSubmitted {
		t.Fatalf("stale snapshot served: %+v", snap)
	}

	// The pulled flags are persisted on the local account row.
	if acc := repo.accounts[1]; !acc.PayoutsEnabled {
		t.Fatalf("pulled capability flags not persisted")
	}
}

func TestCheckEligibilityGatewayErrorPropagates(t *testing.T) {
	repo := newFakePayoutRepo()
	gw := &fakeAccountGateway{}
	svc := NewService(repo, gw)
	ctx := context.Background()

	if _, err := svc.Onboard(ctx, 1, "creator@example.com", "de"); err != nil {
		t.Fatalf("Onboard: %v", err)
	}

	gw.getErr = errors.New("gateway timeout")
	if _, err := svc.CheckEligibility(ctx, 1); err == nil {
		t.Fatalf("gateway failure swallowed; eligibility must not be guessed")
	}
}
