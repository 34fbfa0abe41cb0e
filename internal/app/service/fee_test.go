package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingFee_Tiers(t *testing.T) {
	tests := []struct {
		partySize int
		want      float64
	}{
		{1, 50},
		{2, 50},
		{3, 70},
		{4, 80},
		{5, 100},
		{6, 120},
		{7, 140},
		{8, 160},
		{10, 200},
	}

	for _, tt := range tests {
		fee, err := BookingFee(tt.partySize)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, fee, "party size %d", tt.partySize)
	}
}

func TestBookingFee_InvalidPartySize(t *testing.T) {
	for _, size := range []int{0, -1, -10} {
		fee, err := BookingFee(size)
		assert.ErrorIs(t, err, ErrInvalidPartySize)
		assert.Zero(t, fee)
	}
}
