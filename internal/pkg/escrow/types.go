package escrow

import (
	"context"

	"github.com/bountyhive/BountyHive/internal/pkg/payout"
	"github.com/bountyhive/BountyHive/internal/pkg/quota"
)

// BountyDraft is the pay-before-create payload stored on the first escrow
// record of a checkout session until the gateway confirms payment.
type BountyDraft struct {
	Title                 string `json:"title" validate:"required,min=3,max=200"`
	Description           string `json:"description" validate:"max=5000"`
	PerCreatorAmountCents int64  `json:"per_creator_amount_cents" validate:"gt=0"`
	MaxCreators           int    `json:"max_creators" validate:"gte=1,lte=50"`
	Currency              string `json:"currency" validate:"omitempty,len=3"`
}

// FundBountyInput sizes and opens the checkout for a bounty funding.
// Exactly one of BountyID and Draft must be set; amount and slot count come
// from whichever of the two is given.
type FundBountyInput struct {
	BusinessID    uint
	BusinessEmail string

	BountyID *uint
	Draft    *BountyDraft

	Currency string

	SuccessURL string
	CancelURL  string
}

// FundBountyResult is returned to the funding flow; the caller redirects the
// business to RedirectURL to complete payment.
type FundBountyResult struct {
	EscrowID          string `json:"escrow_id"`
	SessionID         string `json:"session_id"`
	RedirectURL       string `json:"redirect_url"`
	BusinessTotalCent int64  `json:"business_total_cents"`
	PlatformFeeCents  int64  `json:"platform_fee_cents"`
}

// ReleaseResult reports a dispatched creator payout.
type ReleaseResult struct {
	TransferID          string `json:"transfer_id"`
	AmountReleasedCents int64  `json:"amount_released_cents"`
}

// RefundResult reports a dispatched refund.
type RefundResult struct {
	RefundID            string `json:"refund_id"`
	AmountRefundedCents int64  `json:"amount_refunded_cents"`
}

// EligibilityChecker is the payout gate consulted synchronously before any
// transfer is dispatched. Satisfied by *payout.Service.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, userID uint) (*payout.Snapshot, error)
}

// QuotaGate is the usage ledger consulted before quota-limited actions.
// Satisfied by *quota.Service.
type QuotaGate interface {
	CanAct(ctx context.Context, userID uint, kind quota.ActionKind) (bool, error)
	RecordUsage(ctx context.Context, userID uint, kind quota.ActionKind) error
	AddEarnings(ctx context.Context, userID uint, cents int64) error
}

// Outbox queues reconciliation work when a gateway dispatch cannot complete
// inline. Implementations must retry with the original idempotency key.
type Outbox interface {
	EnqueueSettlement(escrowPublicID string) error
	EnqueueLedgerRebuild(bountyID uint) error
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
