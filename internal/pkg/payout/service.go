package payout

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/gateway"
)

// Snapshot is the eligibility view the escrow engine consults before a release.
type Snapshot struct {
	HasPayoutAccount bool   `json:"has_payout_account"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
	AccountRef       string `json:"account_ref,omitempty"`
}

// Service owns the creator payout destination lifecycle. Capability flags are
// always pulled from the gateway, never trusted from an old local copy: they
// flip asynchronously while the creator completes onboarding.
type Service struct {
	repo Repository
	gw   gateway.Client
}

// NewService creates a payout service from injected dependencies.
func NewService(repo Repository, gw gateway.Client) *Service {
	return &Service{repo: repo, gw: gw}
}

// NewServiceFromDB creates a payout service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gw gateway.Client) *Service {
	return NewService(NewRepository(db), gw)
}

// Onboard creates the creator's payout destination at the gateway. Idempotent:
// an existing account is refreshed and returned instead of creating a second one.
func (s *Service) Onboard(ctx context.Context, userID uint, email, country string) (*Snapshot, error) {
	if userID == 0 {
		return nil, apperr.Validation("user id is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, apperr.Validation("email is required for payout onboarding")
	}

	account, err := s.repo.GetByUserID(userID)
	if err == nil {
		return s.refresh(ctx, account)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	accountRef, err := s.gw.CreateAccount(ctx, email, country)
	if err != nil {
		return nil, err
	}

	account = &models.PayoutAccount{
		UserID:     userID,
		AccountRef: accountRef,
		Country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	if err := s.repo.Create(account); err != nil {
		return nil, err
	}
	return s.refresh(ctx, account)
}

// CheckEligibility returns the creator's current payout eligibility, pulled
// from the gateway. Creators without a payout account get a zero snapshot.
func (s *Service) CheckEligibility(ctx context.Context, userID uint) (*Snapshot, error) {
	if userID == 0 {
		return nil, apperr.Validation("user id is required")
	}

	account, err := s.repo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, account)
}

func (s *Service) refresh(ctx context.Context, account *models.PayoutAccount) (*Snapshot, error) {
	status, err := s.gw.GetAccount(ctx, account.AccountRef)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account.PayoutsEnabled = status.PayoutsEnabled
	account.ChargesEnabled = status.ChargesEnabled
	account.DetailsSubmitted = status.DetailsSubmitted
	account.LastSyncedAt = &now
	if err := s.repo.Save(account); err != nil {
		return nil, err
	}

	return &Snapshot{
		HasPayoutAccount: true,
		PayoutsEnabled:   account.PayoutsEnabled,
		ChargesEnabled:   account.ChargesEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
		AccountRef:       account.AccountRef,
	}, nil
}
