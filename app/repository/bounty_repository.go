package repository

import (
	"github.com/bountyhive/BountyHive/app/models"
	"gorm.io/gorm"
)

// bountyRepository implements the BountyRepository interface
type bountyRepository struct {
	db *gorm.DB
}

// NewBountyRepository creates a new bounty repository instance
func NewBountyRepository(db *gorm.DB) BountyRepository {
	return &bountyRepository{db: db}
}

// GetByID retrieves a bounty by its ID
func (r *bountyRepository) GetByID(id uint) (*models.Bounty, error) {
	var bounty models.Bounty
	err := r.db.First(&bounty, id).Error
	if err != nil {
		return nil, err
	}
	return &bounty, nil
}

// ListByBusiness retrieves a paginated list of a business's bounties
func (r *bountyRepository) ListByBusiness(businessID uint, offset, limit int) ([]models.Bounty, error) {
	var bounties []models.Bounty
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&bounties).Error
	return bounties, err
}

// ListOpen retrieves active bounties that still have unpaid creator slots
func (r *bountyRepository) ListOpen(offset, limit int) ([]models.Bounty, error) {
	var bounties []models.Bounty
	err := r.db.Where("status = ? AND paid_creators_count < max_creators", models.BountyStatusActive).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&bounties).Error
	return bounties, err
}

// Count returns the total number of bounties
func (r *bountyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Bounty{}).Count(&count).Error
	return count, err
}

// CountByBusiness returns the number of bounties funded by a business
func (r *bountyRepository) CountByBusiness(businessID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Bounty{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}
