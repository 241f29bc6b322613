package fees

import (
	"strconv"
	"strings"

	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/env"
)

const (
	defaultRateBasisPoints = 500 // 5% platform fee charged on top
	defaultMinPerCreator   = 500
	defaultMaxPerCreator   = 1_000_000
)

// Config holds the fee rate and per-creator amount bounds. All amounts are
// integer minor units (cents) so arithmetic stays exact.
type Config struct {
	RateBasisPoints    int64
	MinPerCreatorCents int64
	MaxPerCreatorCents int64
}

// ConfigFromEnv reads the fee configuration, falling back to defaults.
func ConfigFromEnv() Config {
	return Config{
		RateBasisPoints:    envInt64("PLATFORM_FEE_BPS", defaultRateBasisPoints),
		MinPerCreatorCents: envInt64("BOUNTY_MIN_CENTS", defaultMinPerCreator),
		MaxPerCreatorCents: envInt64("BOUNTY_MAX_CENTS", defaultMaxPerCreator),
	}
}

// PlatformFee returns the platform fee on a total bounty amount,
// rounded half-up to a whole cent.
func (c Config) PlatformFee(totalCents int64) int64 {
	return (totalCents*c.RateBasisPoints + 5_000) / 10_000
}

// BusinessTotal is what the business pays at checkout: the full bounty budget
// plus the platform fee charged on top.
func (c Config) BusinessTotal(perCreatorCents int64, creatorCount int) int64 {
	total := perCreatorCents * int64(creatorCount)
	return total + c.PlatformFee(total)
}

// CreatorEarnings is the amount a creator receives for one slot. The fee is
// charged on top of the bounty, never deducted from the creator.
func CreatorEarnings(perCreatorCents int64) int64 {
	return perCreatorCents
}

// ValidateAmount rejects per-creator amounts outside the configured bounds.
func (c Config) ValidateAmount(perCreatorCents int64) error {
	if perCreatorCents <= 0 {
		return apperr.Validation("bounty amount must be positive")
	}
	if perCreatorCents < c.MinPerCreatorCents {
		return apperr.Validation("bounty amount %d is below the minimum of %d cents", perCreatorCents, c.MinPerCreatorCents)
	}
	if c.MaxPerCreatorCents > 0 && perCreatorCents > c.MaxPerCreatorCents {
		return apperr.Validation("bounty amount %d exceeds the maximum of %d cents", perCreatorCents, c.MaxPerCreatorCents)
	}
	return nil
}

func envInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}
