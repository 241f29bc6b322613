package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EscrowStatusPending         = "pending"
	EscrowStatusHeldInEscrow    = "held_in_escrow"
	EscrowStatusReadyForRelease = "ready_for_release"
	EscrowStatusReleased        = "released"
	EscrowStatusRefunded        = "refunded"
	EscrowStatusFailed          = "failed"
)

// EscrowPayment is the authoritative ledger row for one creator slot of a
// funded bounty. Several rows may share a gateway checkout session (one per
// slot), but each row dispatches at most one outbound transfer or refund.
type EscrowPayment struct {
	ID                uint   `gorm:"primaryKey" json:"-"`
	PublicID          string `gorm:"type:char(36);uniqueIndex;not null" json:"id"`
	BountyID          *uint  `gorm:"index" json:"bounty_id,omitempty"`
	BusinessID        uint   `gorm:"not null;index" json:"business_id"`
	BusinessEmail     string `gorm:"type:varchar(200)" json:"business_email"`
	AmountCents       int64  `gorm:"not null" json:"amount_cents"`
	Currency          string `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Status            string `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	GatewayCustomerID string `gorm:"type:varchar(191)" json:"-"`
	GatewaySessionID  string `gorm:"type:varchar(191);index" json:"-"`
	GatewayPaymentRef string `gorm:"type:varchar(191)" json:"-"`
	GatewayTransferID string `gorm:"type:varchar(191)" json:"-"`
	GatewayRefundID   string `gorm:"type:varchar(191)" json:"-"`
	// Pay-before-create flow: the bounty draft rides on the first slot record
	// until the gateway confirms the session, then materializes exactly once.
	PendingBountyJSON   string         `gorm:"type:longtext" json:"-"`
	CreatorID           *uint          `gorm:"index" json:"creator_id,omitempty"`
	CreatorEarningsCent int64          `gorm:"column:creator_earnings_cents;default:0" json:"creator_earnings_cents"`
	FailureReason       string         `gorm:"type:varchar(500)" json:"failure_reason,omitempty"`
	ReleasedAt          *time.Time     `gorm:"type:timestamp;default:null" json:"released_at,omitempty"`
	RefundedAt          *time.Time     `gorm:"type:timestamp;default:null" json:"refunded_at,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewEscrowPayment builds a pending record with a fresh public id.
func NewEscrowPayment(businessID uint, businessEmail string, amountCents int64, currency string) *EscrowPayment {
	return &EscrowPayment{
		PublicID:      uuid.New().String(),
		BusinessID:    businessID,
		BusinessEmail: businessEmail,
		AmountCents:   amountCents,
		Currency:      currency,
		Status:        EscrowStatusPending,
	}
}

// IsTerminal reports whether the record can no longer transition.
func (e *EscrowPayment) IsTerminal() bool {
	switch e.Status {
	case EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusFailed:
		return true
	default:
		return false
	}
}

// ValidEscrowTransition reports whether from -> to is allowed by the lifecycle
// state machine. Terminal states never transition.
func ValidEscrowTransition(from, to string) bool {
	switch from {
	case EscrowStatusPending:
		return to == EscrowStatusHeldInEscrow || to == EscrowStatusRefunded || to == EscrowStatusFailed
	case EscrowStatusHeldInEscrow:
		return to == EscrowStatusReadyForRelease || to == EscrowStatusRefunded || to == EscrowStatusFailed
	case EscrowStatusReadyForRelease:
		return to == EscrowStatusReleased || to == EscrowStatusFailed
	default:
		return false
	}
}
