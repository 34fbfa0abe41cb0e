package service

import "errors"

// ErrInvalidPartySize is returned for a non-positive party size.
var ErrInvalidPartySize = errors.New("party size must be at least 1")

// Booking fee schedule in HKD. Parties above six pay the six-person fee
// plus a flat per-head surcharge.
const (
	feePairHKD     = 50.0
	feeThreeHKD    = 70.0
	feeFourHKD     = 80.0
	feeFiveHKD     = 100.0
	feeSixHKD      = 120.0
	feeExtraPerHKD = 20.0
)

// BookingFee returns the fee in HKD charged for a party of the given size.
func BookingFee(partySize int) (float64, error) {
	if partySize < 1 {
		return 0, ErrInvalidPartySize
	}

	switch {
	case partySize <= 2:
		return feePairHKD, nil
	case partySize == 3:
		return feeThreeHKD, nil
	case partySize == 4:
		return feeFourHKD, nil
	case partySize == 5:
		return feeFiveHKD, nil
	case partySize == 6:
		return feeSixHKD, nil
	default:
		return feeSixHKD + feeExtraPerHKD*float64(partySize-6), nil
	}
}
