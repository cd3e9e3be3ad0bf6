// Package security evaluates master password strength.
package security

// Strength buckets a password by how hard it is to guess.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthFair
	StrengthGood
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthFair:
		return "fair"
	case StrengthGood:
		return "good"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// MinMasterPasswordLength is the hard floor for a master password.
const MinMasterPasswordLength = 8

// EvaluateMasterPassword buckets a user-chosen master password. Length is
// the primary factor per NIST SP 800-63B; composition rules are not
// enforced. Everything below the hard floor is Weak.
func EvaluateMasterPassword(password string) Strength {
	switch length := len(password); {
	case length >= 20:
		return StrengthStrong
	case length >= 14:
		return StrengthGood
	case length >= MinMasterPasswordLength:
		return StrengthFair
	default:
		return StrengthWeak
	}
}
