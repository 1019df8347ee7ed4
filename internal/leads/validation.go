package leads

import (
	"regexp"
	"strings"
)

// ValidationResult is the outcome of checking a single field. It is never an
// error: malformed input produces a populated Errors list, nothing panics.
type ValidationResult struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the basic shape local@domain.tld. The empty string is
// invalid.
func ValidateEmail(email string) ValidationResult {
	if !emailPattern.MatchString(email) {
		return ValidationResult{Errors: []string{"Invalid email format"}}
	}
	return ValidationResult{Valid: true}
}

// ValidatePhone strips all non-digit characters and requires 10-15 digits,
// inclusive.
func ValidatePhone(phone string) ValidationResult {
	digits := digitsOnly(phone)
	if len(digits) < 10 || len(digits) > 15 {
		return ValidationResult{Errors: []string{"Phone number must be between 10-15 digits"}}
	}
	return ValidationResult{Valid: true}
}

// NormalizeEmail lower-cases and trims an email for duplicate comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone reduces a phone value to its digits for duplicate comparison.
func NormalizePhone(phone string) string {
	return digitsOnly(phone)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
