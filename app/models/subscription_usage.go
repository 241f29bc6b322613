package models

import (
	"fmt"
	"time"
)

// SubscriptionUsage tracks per-user action counters for one billing period.
// The stored limits are a snapshot for display; the effective limit is always
// derived from the user's current plan at read time. A new period key simply
// starts a fresh row, so no reset job exists.
type SubscriptionUsage struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index:ux_subscription_usage_user_period,unique,priority:1" json:"user_id"`
	PeriodKey          string    `gorm:"type:varchar(7);not null;index:ux_subscription_usage_user_period,unique,priority:2" json:"period_key"`
	ApplicationsUsed   int       `gorm:"not null;default:0" json:"applications_used"`
	ApplicationsLimit  int       `gorm:"not null;default:0" json:"applications_limit"`
	BountiesCreated    int       `gorm:"not null;default:0" json:"bounties_created"`
	BountiesLimit      int       `gorm:"not null;default:0" json:"bounties_limit"`
	TotalEarningsCents int64     `gorm:"not null;default:0" json:"total_earnings_cents"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PeriodKeyFor returns the calendar-month billing period key for t (UTC).
func PeriodKeyFor(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
