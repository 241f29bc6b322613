package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBounty_InitPayoutLedger(t *testing.T) {
	b := &Bounty{
		PerCreatorAmountCents: 5_000,
		MaxCreators:           3,
		PaidCreatorsCount:     99,
		TotalPaidCents:        99,
		RemainingBudgetCents:  99,
	}

	b.InitPayoutLedger()

	assert.Equal(t, 0, b.PaidCreatorsCount)
	assert.Equal(t, int64(0), b.TotalPaidCents)
	assert.Equal(t, int64(15_000), b.RemainingBudgetCents)
	assert.True(t, b.LedgerConsistent())
}

func TestBounty_LedgerConsistent(t *testing.T) {
	tests := []struct {
		name   string
		bounty Bounty
		want   bool
	}{
		{
			name: "fresh ledger",
			bounty: Bounty{
				PerCreatorAmountCents: 5_000,
				MaxCreators:           2,
				RemainingBudgetCents:  10_000,
			},
			want: true,
		},
		{
			name: "one slot paid",
			bounty: Bounty{
				PerCreatorAmountCents: 5_000,
				MaxCreators:           2,
				PaidCreatorsCount:     1,
				TotalPaidCents:        5_000,
				RemainingBudgetCents:  5_000,
			},
			want: true,
		},
		{
			name: "fully paid out",
			bounty: Bounty{
				PerCreatorAmountCents: 5_000,
				MaxCreators:           2,
				PaidCreatorsCount:     2,
				TotalPaidCents:        10_000,
				RemainingBudgetCents:  0,
			},
			want: true,
		},
		{
			name: "paid count exceeds slots",
			bounty: Bounty{
				PerCreatorAmountCents: 5_000,
				MaxCreators:           2,
				PaidCreatorsCount:     3,
				TotalPaidCents:        15_000,
				RemainingBudgetCents:  -5_000,
			},
			want: false,
		},
		{
			name: "total does not match paid count",
			bounty: Bounty{
				PerCreatorAmountCents: 5_000,
				MaxCreators:           2,
				PaidCreatorsCount:     1,
				TotalPaidCents:        4_999,
				RemainingBudgetCents:  5_001,
			},
			want: false,
		},
		{
			name: "remaining budget drifted",
			bounty: Bounty{
				PerCreatorAmountCents: 5_000,
				MaxCreators:           2,
				PaidCreatorsCount:     1,
				TotalPaidCents:        5_000,
				RemainingBudgetCents:  4_000,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bounty.LedgerConsistent())
		})
	}
}

func TestBounty_HasOpenSlot(t *testing.T) {
	b := Bounty{MaxCreators: 2}

	assert.True(t, b.HasOpenSlot())

	b.PaidCreatorsCount = 1
	assert.True(t, b.HasOpenSlot())

	b.PaidCreatorsCount = 2
	assert.False(t, b.HasOpenSlot())
}

func TestBounty_Validate(t *testing.T) {
	valid := Bounty{
		Title:                 "Launch video campaign",
		PerCreatorAmountCents: 5_000,
		MaxCreators:           2,
	}
	assert.NoError(t, valid.Validate())

	tooShort := valid
	tooShort.Title = "ab"
	assert.Error(t, tooShort.Validate())

	zeroAmount := valid
	zeroAmount.PerCreatorAmountCents = 0
	assert.Error(t, zeroAmount.Validate())

	noSlots := valid
	noSlots.MaxCreators = 0
	assert.Error(t, noSlots.Validate())
}
