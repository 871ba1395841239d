package domain

import "time"

// Account is the identity record behind authentication. The lockout fields
// are mutated by every login attempt; FailedLoginAttempts goes back to zero
// on any successful authentication or once LockedUntil has passed.
type Account struct {
	ID                  string
	Email               string // normalized: trimmed and case-folded
	PasswordHash        string // bcrypt encoded
	FailedLoginAttempts int
	LockedUntil         *time.Time // nil when not locked
	LastFailedLogin     *time.Time
	CreatedAt           time.Time
}

// Locked reports whether the account is inside an active lockout window.
// Expiry is evaluated lazily against the supplied clock; there is no
// background unlock job.
func (a Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}
