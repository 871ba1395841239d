package service

import (
	"time"

	"github.com/taskdock/taskdock/internal/domain"
)

// Lockout policy defaults, matching OWASP's brute-force guidance.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 30 * time.Minute
)

// lockoutPolicy decides how failed login attempts advance an account's
// lockout state. The state lives on the account row; expiry is a pure
// function of the stored timestamp and the caller's clock, never a timer.
type lockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// advance computes the account's state after one more failed attempt.
// It returns the new counter value and the lockout expiry to store, nil
// while the account remains open.
//
// A lockout window that has already passed is released here: the counter
// restarts from zero before the increment, so the first failure after an
// expired lockout lands on 1, not threshold+1.
func (p lockoutPolicy) advance(a domain.Account, now time.Time) (attempts int, lockedUntil *time.Time) {
	prior := a.FailedLoginAttempts
	if a.LockedUntil != nil && !now.Before(*a.LockedUntil) {
		prior = 0
	}

	attempts = prior + 1
	if attempts >= p.Threshold {
		until := now.Add(p.Duration)
		lockedUntil = &until
	}
	return attempts, lockedUntil
}
