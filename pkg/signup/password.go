package signup

import "unicode"

// StrengthLabel buckets a password score for display.
type StrengthLabel string

const (
	StrengthWeak   StrengthLabel = "weak"
	StrengthMedium StrengthLabel = "medium"
	StrengthStrong StrengthLabel = "strong"
)

// StrengthResult carries the score and which individual checks passed.
type StrengthResult struct {
	Score      int
	Label      StrengthLabel
	HasLength  bool
	HasLower   bool
	HasUpper   bool
	HasDigit   bool
	HasSpecial bool
}

// Acceptable reports whether the password clears the sign-up bar.
func (r StrengthResult) Acceptable() bool {
	return r.Score >= 3
}

// EvaluatePassword scores a candidate password. Each of five independent
// checks contributes one point: length of at least 8, a lowercase letter,
// an uppercase letter, a digit, and a character that is none of those.
func EvaluatePassword(password string) StrengthResult {
	r := StrengthResult{HasLength: len(password) >= 8}

	for _, c := range password {
		switch {
		case unicode.IsLower(c):
			r.HasLower = true
		case unicode.IsUpper(c):
			r.HasUpper = true
		case unicode.IsDigit(c):
			r.HasDigit = true
		default:
			r.HasSpecial = true
		}
	}

	for _, ok := range []bool{r.HasLength, r.HasLower, r.HasUpper, r.HasDigit, r.HasSpecial} {
		if ok {
			r.Score++
		}
	}

	switch {
	case r.Score <= 2:
		r.Label = StrengthWeak
	case r.Score <= 4:
		r.Label = StrengthMedium
	default:
		r.Label = StrengthStrong
	}
	return r
}
