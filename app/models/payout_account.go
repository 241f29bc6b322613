package models

import "time"

// PayoutAccount is a creator's payout destination at the payment gateway.
// Created on first onboarding attempt, mutated only from gateway state,
// never deleted by the engine.
type PayoutAccount struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	AccountRef       string     `gorm:"type:varchar(191);not null" json:"account_ref"`
	Country          string     `gorm:"type:varchar(2)" json:"country"`
	PayoutsEnabled   bool       `gorm:"default:false" json:"payouts_enabled"`
	ChargesEnabled   bool       `gorm:"default:false" json:"charges_enabled"`
	DetailsSubmitted bool       `gorm:"default:false" json:"details_submitted"`
	LastSyncedAt     *time.Time `gorm:"type:timestamp;default:null" json:"last_synced_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
