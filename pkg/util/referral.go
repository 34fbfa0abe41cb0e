package util

import (
	"math/rand"
)

// Ambiguous characters (0/O, 1/I) are left out on purpose.
const referralCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferralCode returns a short shareable code like "BP7KQ2MX".
// Uniqueness is enforced by the database; callers retry on collision.
// The top-level rand functions are safe for concurrent signups.
func GenerateReferralCode(length int) string {
	if length <= 0 {
		length = 8
	}
	code := make([]byte, length)
	for i := range code {
		code[i] = referralCharset[rand.Intn(len(referralCharset))]
	}
	return string(code)
}
