package payout

import (
	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
)

// Repository provides DB operations used by the payout eligibility service.
type Repository interface {
	GetByUserID(userID uint) (*models.PayoutAccount, error)
	Create(account *models.PayoutAccount) error
	Save(account *models.PayoutAccount) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payout repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByUserID(userID uint) (*models.PayoutAccount, error) {
	var account models.PayoutAccount
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) Create(account *models.PayoutAccount) error {
	return r.db.Create(account).Error
}

func (r *gormRepository) Save(account *models.PayoutAccount) error {
	return r.db.Save(account).Error
}
