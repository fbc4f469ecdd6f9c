package service

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

const minPasswordLength = 8

// commonPasswords is a short deny-list of passwords seen constantly in
// credential dumps. Checked case-insensitively.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "87654321": {},
	"qwerty123": {}, "qwertyuiop": {}, "1q2w3e4r": {}, "1qaz2wsx": {},
	"letmein1": {}, "welcome1": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "superman": {},
	"trustno1": {}, "dragon123": {}, "monkey123": {}, "abc12345": {},
	"admin123": {}, "root1234": {}, "changeme": {}, "testtest": {},
}

// ValidatePassword enforces the account password policy: minimum length,
// not entirely numeric, not on the common-password list, and not containing
// or contained in any of the caller-supplied attributes (email local part,
// username, names).
func ValidatePassword(password string, userInputs ...string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return fmt.Errorf("%w: password cannot be entirely numeric", apperrors.ErrValidation)
	}

	lowered := strings.ToLower(password)
	if _, found := commonPasswords[lowered]; found {
		return fmt.Errorf("%w: password is too common", apperrors.ErrValidation)
	}

	for _, input := range userInputs {
		candidate := strings.ToLower(strings.TrimSpace(input))
		if len(candidate) < 4 {
			continue
		}
		// Compare against the attribute and, for emails, its local part.
		parts := []string{candidate}
		if at := strings.Index(candidate, "@"); at > 0 {
			parts = append(parts, candidate[:at])
		}
		for _, part := range parts {
			if len(part) >= 4 && (strings.Contains(lowered, part) || strings.Contains(part, lowered)) {
				return fmt.Errorf("%w: password is too similar to your personal information", apperrors.ErrValidation)
			}
		}
	}

	return nil
}
