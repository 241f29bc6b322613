package quota

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bountyhive/BountyHive/app/models"
)

// Repository provides DB operations used by the quota service.
type Repository interface {
	GetUserPlan(userID uint) (string, error)
	GetUsage(userID uint, periodKey string) (*models.SubscriptionUsage, error)
	EnsureUsage(usage *models.SubscriptionUsage) error
	IncrementCounter(userID uint, periodKey, column string) error
	AddEarnings(userID uint, periodKey string, cents int64) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a quota repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserPlan(userID uint) (string, error) {
	us, err := models.GetOrCreateUserSettings(r.db, userID)
	if err != nil {
		return "", err
	}
	return us.Plan, nil
}

func (r *gormRepository) GetUsage(userID uint, periodKey string) (*models.SubscriptionUsage, error) {
	var usage models.SubscriptionUsage
	err := r.db.Where("user_id = ? AND period_key = ?", userID, periodKey).First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *gormRepository) EnsureUsage(usage *models.SubscriptionUsage) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "period_key"},
		},
		DoNothing: true,
	}).Create(usage).Error; err != nil {
		return err
	}

	// Ensure ID and counters reflect the stored row after upsert.
	return r.db.Where("user_id = ? AND period_key = ?", usage.UserID, usage.PeriodKey).
		First(usage).Error
}

func (r *gormRepository) IncrementCounter(userID uint, periodKey, column string) error {
	return r.db.Model(&models.SubscriptionUsage{}).
		Where("user_id = ? AND period_key = ?", userID, periodKey).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (r *gormRepository) AddEarnings(userID uint, periodKey string, cents int64) error {
	return r.db.Model(&models.SubscriptionUsage{}).
		Where("user_id = ? AND period_key = ?", userID, periodKey).
		UpdateColumn("total_earnings_cents", gorm.Expr("total_earnings_cents + ?", cents)).Error
}
