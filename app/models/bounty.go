package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	BountyStatusPending   = "pending"
	BountyStatusActive    = "active"
	BountyStatusCompleted = "completed"
	BountyStatusCancelled = "cancelled"
)

const (
	BountyPaymentPending = "pending"
	BountyPaymentHeld    = "held_in_escrow"
	BountyPaymentDone    = "completed"
)

// Bounty is the content bounty a business funds. The escrow engine only ever
// writes the payment fields and the pending -> active promotion; everything
// else belongs to the surrounding application.
type Bounty struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	BusinessID            uint           `gorm:"not null;index" json:"business_id"`
	Title                 string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Description           string         `gorm:"type:text" json:"description" validate:"max=5000"`
	Status                string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus         string         `gorm:"type:varchar(32);not null;default:'pending'" json:"payment_status"`
	EscrowPaymentID       *uint          `gorm:"index" json:"escrow_payment_id,omitempty"`
	Currency              string         `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	PerCreatorAmountCents int64          `gorm:"not null" json:"per_creator_amount_cents" validate:"gt=0"`
	MaxCreators           int            `gorm:"not null;default:1" json:"max_creators" validate:"gte=1"`
	PaidCreatorsCount     int            `gorm:"not null;default:0" json:"paid_creators_count"`
	TotalPaidCents        int64          `gorm:"not null;default:0" json:"total_paid_cents"`
	RemainingBudgetCents  int64          `gorm:"not null;default:0" json:"remaining_budget_cents"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Bounty) Validate() error {
	v := validator.New()
	return v.Struct(b)
}

// InitPayoutLedger sets the ledger counters for a freshly created bounty.
func (b *Bounty) InitPayoutLedger() {
	b.PaidCreatorsCount = 0
	b.TotalPaidCents = 0
	b.RemainingBudgetCents = b.PerCreatorAmountCents * int64(b.MaxCreators)
}

// LedgerConsistent checks the payout ledger arithmetic invariants.
func (b *Bounty) LedgerConsistent() bool {
	if b.PaidCreatorsCount > b.MaxCreators {
		return false
	}
	if b.TotalPaidCents != b.PerCreatorAmountCents*int64(b.PaidCreatorsCount) {
		return false
	}
	return b.RemainingBudgetCents == b.PerCreatorAmountCents*int64(b.MaxCreators)-b.TotalPaidCents
}

// HasOpenSlot reports whether another creator can still be paid.
func (b *Bounty) HasOpenSlot() bool {
	return b.PaidCreatorsCount < b.MaxCreators
}
