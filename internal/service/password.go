package service

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultPasswordMinLength is the fallback minimum password length.
const DefaultPasswordMinLength = 8

// passwordSpecials is the accepted special-character set.
const passwordSpecials = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// PasswordPolicy describes the strength requirements enforced at
// registration. It is configuration, not behaviour baked into the
// orchestrator.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy requires 8+ characters from all four classes.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      DefaultPasswordMinLength,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// Validate checks a candidate password, wrapping ErrWeakPassword with the
// first unmet requirement.
func (p PasswordPolicy) Validate(password string) error {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = DefaultPasswordMinLength
	}

	if len(password) < minLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, c):
			hasSpecial = true
		}
	}

	switch {
	case p.RequireUpper && !hasUpper:
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	case p.RequireLower && !hasLower:
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	case p.RequireDigit && !hasDigit:
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	case p.RequireSpecial && !hasSpecial:
		return fmt.Errorf("%w: must contain a special character", ErrWeakPassword)
	}

	return nil
}
