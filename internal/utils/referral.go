package utils

import (
	"strings" // Upper-casing

	"github.com/google/uuid" // Random source
)

// ReferralCodeLength is the length of generated invite codes
const ReferralCodeLength = 8

// NewReferralCode returns a random upper-case invite code. Callers retry on
// a unique-index collision.
func NewReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:ReferralCodeLength])
}
