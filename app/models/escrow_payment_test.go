package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEscrowPayment(t *testing.T) {
	rec := NewEscrowPayment(7, "biz@example.com", 10_000, "usd")

	require.NotEmpty(t, rec.PublicID)
	assert.Equal(t, uint(7), rec.BusinessID)
	assert.Equal(t, int64(10_000), rec.AmountCents)
	assert.Equal(t, EscrowStatusPending, rec.Status)
	assert.False(t, rec.IsTerminal())

	other := NewEscrowPayment(7, "biz@example.com", 10_000, "usd")
	assert.NotEqual(t, rec.PublicID, other.PublicID)
}

func TestValidEscrowTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{EscrowStatusPending, EscrowStatusHeldInEscrow, true},
		{EscrowStatusPending, EscrowStatusRefunded, true},
		{EscrowStatusPending, EscrowStatusFailed, true},
		{EscrowStatusPending, EscrowStatusReadyForRelease, false},
		{EscrowStatusPending, EscrowStatusReleased, false},

		{EscrowStatusHeldInEscrow, EscrowStatusReadyForRelease, true},
		{EscrowStatusHeldInEscrow, EscrowStatusRefunded, true},
		{EscrowStatusHeldInEscrow, EscrowStatusFailed, true},
		{EscrowStatusHeldInEscrow, EscrowStatusReleased, false},

		{EscrowStatusReadyForRelease, EscrowStatusReleased, true},
		{EscrowStatusReadyForRelease, EscrowStatusFailed, true},
		{EscrowStatusReadyForRelease, EscrowStatusRefunded, false},
		{EscrowStatusReadyForRelease, EscrowStatusHeldInEscrow, false},

		// Terminal states never transition.
		{EscrowStatusReleased, EscrowStatusRefunded, false},
		{EscrowStatusReleased, EscrowStatusPending, false},
		{EscrowStatusRefunded, EscrowStatusReleased, false},
		{EscrowStatusFailed, EscrowStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEscrowTransition(tt.from, tt.to))
		})
	}
}

func TestEscrowPayment_IsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{EscrowStatusPending, false},
		{EscrowStatusHeldInEscrow, false},
		{EscrowStatusReadyForRelease, false},
		{EscrowStatusReleased, true},
		{EscrowStatusRefunded, true},
		{EscrowStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			rec := EscrowPayment{Status: tt.status}
			assert.Equal(t, tt.want, rec.IsTerminal())
		})
	}
}
