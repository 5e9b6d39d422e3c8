package auth

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	MinPasswordLen = 8
	MaxScore       = 5
)

// StrengthResult reports the outcome of a password strength check. Score is
// one point per satisfied requirement (length, lowercase, uppercase, digit,
// special), minus a two-point penalty for common passwords, floored at zero.
// A password is valid only when no errors were recorded.
type StrengthResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	Score   int      `json:"score"`
}

// Common weak passwords to reject
var commonPasswords = map[string]bool{
	"password":     true,
	"12345678":     true,
	"qwerty":       true,
	"abc123":       true,
	"password123":  true,
	"password123!": true,
	"123456":       true,
	"admin":        true,
	"letmein":      true,
	"welcome":      true,
	"monkey":       true,
	"dragon":       true,
	"master":       true,
	"123123":       true,
	"qwerty123":    true,
	"iloveyou":     true,
	"sunshine":     true,
	"princess":     true,
	"football":     true,
	"trustno1":     true,
}

// ValidateStrength scores a password against the signup requirements.
func ValidateStrength(password string) StrengthResult {
	result := StrengthResult{Errors: make([]string, 0)}

	if len(password) >= MinPasswordLen {
		result.Score++
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLen))
	}

	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if hasLower {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "Password must contain at least one lowercase letter")
	}
	if hasUpper {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "Password must contain at least one uppercase letter")
	}
	if hasDigit {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "Password must contain at least one number")
	}
	if hasSpecial {
		result.Score++
	} else {
		result.Errors = append(result.Errors, "Password must contain at least one special character")
	}

	if commonPasswords[strings.ToLower(password)] {
		result.Errors = append(result.Errors, "Password is too common, please choose a more unique password")
		result.Score -= 2
		if result.Score < 0 {
			result.Score = 0
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
