package repository

import (
	"github.com/bountyhive/BountyHive/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// BountyRepository defines the interface for bounty listing and lookup
type BountyRepository interface {
	GetByID(id uint) (*models.Bounty, error)
	ListByBusiness(businessID uint, offset, limit int) ([]models.Bounty, error)
	ListOpen(offset, limit int) ([]models.Bounty, error)
	Count() (int64, error)
	CountByBusiness(businessID uint) (int64, error)
}

// UserStats provides aggregated payment figures for a single user. Funded and
// earned sides are both present because admins can hold either role.
type UserStats struct {
	BountyCount      int64
	TotalFundedCents int64
	EarnedCents      int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User   UserRepository
	Bounty BountyRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		Bounty: NewBountyRepository(db),
	}
}
