package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/cache"
	"github.com/bountyhive/BountyHive/internal/pkg/database"
)

const (
	CacheKeyBountiesTotal = "statistics:bounties:total"
	CacheKeyEscrowHeld    = "statistics:escrow:held_cents"
	CacheKeyPayoutsVolume = "statistics:payouts:released_cents"
	CacheKeyUsersTotal    = "statistics:users:total"
	CacheExpiration       = 30 * time.Minute
	cacheUpdateInterval   = 5 * time.Minute
)

// StatisticsData holds the platform figures shown on the admin dashboard
type StatisticsData struct {
	TotalBounties       int64 `json:"total_bounties"`
	TotalUsers          int64 `json:"total_users"`
	HeldCents           int64 `json:"held_cents"`
	ReleasedPayoutCents int64 `json:"released_payout_cents"`
}

var (
	lastCacheUpdate  time.Time
	cacheUpdateMutex sync.Mutex
)

// ShouldUpdateCache checks whether the cached figures are stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when it is stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recomputes all platform figures and stores them in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalBounties int64
	if err := db.Model(&models.Bounty{}).Count(&totalBounties).Error; err != nil {
		log.Printf("Error counting bounties: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	var heldCents int64
	if err := db.Model(&models.EscrowPayment{}).
		Where("status IN ?", []string{models.EscrowStatusHeldInEscrow, models.EscrowStatusReadyForRelease}).
		Select("COALESCE(SUM(amount_cents), 0)").Row().Scan(&heldCents); err != nil {
		log.Printf("Error summing held escrow: %v", err)
		return err
	}

	var releasedCents int64
	if err := db.Model(&models.EscrowPayment{}).
		Where("status = ?", models.EscrowStatusReleased).
		Select("COALESCE(SUM(creator_earnings_cents), 0)").Row().Scan(&releasedCents); err != nil {
		log.Printf("Error summing released payouts: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyBountiesTotal, strconv.FormatInt(totalBounties, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsersTotal, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyEscrowHeld, strconv.FormatInt(heldCents, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyPayoutsVolume, strconv.FormatInt(releasedCents, 10), CacheExpiration); err != nil {
		return err
	}

	return nil
}

// GetStatisticsData returns the cached platform figures, refreshing them when stale
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TotalBounties:       cachedInt64(CacheKeyBountiesTotal),
		TotalUsers:          cachedInt64(CacheKeyUsersTotal),
		HeldCents:           cachedInt64(CacheKeyEscrowHeld),
		ReleasedPayoutCents: cachedInt64(CacheKeyPayoutsVolume),
	}
}

func cachedInt64(key string) int64 {
	val, err := cache.Get(key)
	if err != nil {
		return 0
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return count
}
