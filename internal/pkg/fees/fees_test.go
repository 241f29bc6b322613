package fees

import (
	"testing"

	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
)

func testConfig() Config {
	return Config{
		RateBasisPoints:    500,
		MinPerCreatorCents: 500,
		MaxPerCreatorCents: 1_000_000,
	}
}

func TestPlatformFee(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		totalCents int64
		want       int64
	}{
		// $100.00 bounty -> $5.00 fee
		{totalCents: 10_000, want: 500},
		// 3 x $50.00 -> $150.00 total -> $7.50 fee
		{totalCents: 15_000, want: 750},
		// $10.30 -> 51.5 cents, rounds half-up to 52
		{totalCents: 1_030, want: 52},
		// $10.50 -> 52.5 cents, rounds half-up to 53
		{totalCents: 1_050, want: 53},
		// $10.49 -> 52.45 cents, rounds down to 52
		{totalCents: 1_049, want: 52},
		{totalCents: 0, want: 0},
	}

	for _, tt := range tests {
		if got := cfg.PlatformFee(tt.totalCents); got != tt.want {
			t.Fatalf("PlatformFee(%d) = %d, want %d", tt.totalCents, got, tt.want)
		}
	}
}

func TestBusinessTotal(t *testing.T) {
	cfg := testConfig()

	// Single creator at $100.00: business pays $105.00.
	if got := cfg.BusinessTotal(10_000, 1); got != 10_500 {
		t.Fatalf("BusinessTotal(10000, 1) = %d, want 10500", got)
	}

	// Three creators at $50.00 each: business pays $157.50.
	if got := cfg.BusinessTotal(5_000, 3); got != 15_750 {
		t.Fatalf("BusinessTotal(5000, 3) = %d, want 15750", got)
	}
}

func TestCreatorEarningsNeverCarryFee(t *testing.T) {
	cfg := testConfig()

	// The fee is charged on top, so for every amount in range:
	// business total - fee == bounty total, and the creator gets the full
	// per-creator amount.
	for amount := cfg.MinPerCreatorCents; amount <= 100_000; amount += 997 {
		for _, creators := range []int{1, 2, 5} {
			total := amount * int64(creators)
			businessTotal := cfg.BusinessTotal(amount, creators)
			fee := cfg.PlatformFee(total)

			if businessTotal-fee != total {
				t.Fatalf("amount=%d creators=%d: businessTotal-fee = %d, want %d", amount, creators, businessTotal-fee, total)
			}
			if CreatorEarnings(amount) != amount {
				t.Fatalf("CreatorEarnings(%d) = %d, want %d", amount, CreatorEarnings(amount), amount)
			}
		}
	}
}

func TestValidateAmount(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		amount  int64
		wantErr bool
	}{
		{amount: 500, wantErr: false},
		{amount: 10_000, wantErr: false},
		{amount: 1_000_000, wantErr: false},
		{amount: 499, wantErr: true},
		{amount: 0, wantErr: true},
		{amount: -100, wantErr: true},
		{amount: 1_000_001, wantErr: true},
	}

	for _, tt := range tests {
		err := cfg.ValidateAmount(tt.amount)
		if tt.wantErr && err == nil {
			t.Fatalf("ValidateAmount(%d) = nil, want error", tt.amount)
		}
		if !tt.wantErr && err != nil {
			t.Fatalf("ValidateAmount(%d) = %v, want nil", tt.amount, err)
		}
		if tt.wantErr && !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("ValidateAmount(%d) kind = %v, want validation", tt.amount, apperr.KindOf(err))
		}
	}
}
