package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/store"
	"github.com/taskdock/taskdock/pkg/cryptox"
	"github.com/taskdock/taskdock/pkg/idx"
	"github.com/taskdock/taskdock/pkg/jwtx"
	"github.com/taskdock/taskdock/pkg/slogx"
)

var (
	ErrDuplicateAccount    = errors.New("duplicate_account")
	ErrWeakPassword        = errors.New("weak_password")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrUnauthorized        = errors.New("unauthorized")
)

// AccountLockedError rejects authentication while an account sits inside its
// lockout window. RetryAfter tells the client how long is left; the HTTP
// layer rounds it up to whole seconds.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account_locked: retry after %s", e.RetryAfter)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthService composes the password hasher, token issuer/verifier and the
// lockout policy into the register/login/refresh/authorize flows.
//
// Token verification is stateless: the server keeps no session rows, only
// the per-account lockout counters.
type AuthService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier jwtx.Verifier

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	BcryptCost     int
	PasswordPolicy PasswordPolicy

	LockoutThreshold int
	LockoutDuration  time.Duration

	// Now is the clock for lockout evaluation and token issuance.
	// Defaults to time.Now in UTC; tests inject their own.
	Now func() time.Time
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and, like a successful login, returns a fresh
// token pair so the client is signed in immediately.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	if err := s.PasswordPolicy.Validate(password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("registration with existing email", slog.String("email", email))
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	log.Info("account registered", slog.String("account_id", acct.ID))
	return s.issuePair(acct.ID, now)
}

// Login authenticates an email/password pair.
//
// Unknown emails burn a dummy hash comparison and then fail with the same
// ErrInvalidCredentials as a wrong password, so neither the error kind nor
// the response timing reveals whether the email is registered. Attempts
// against a locked account are rejected before any hashing and do not
// advance the counter.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	email = NormalizeEmail(email)

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyCompare(password)
			log.Warn("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if acct.Locked(now) {
		log.Warn("login attempt for locked account", slog.String("account_id", acct.ID))
		return nil, &AccountLockedError{RetryAfter: acct.LockedUntil.Sub(now)}
	}

	if !cryptox.VerifyPassword(password, acct.PasswordHash) {
		return nil, s.recordFailure(ctx, acct.ID, now)
	}

	if err := s.Store.Accounts().ResetLoginState(ctx, acct.ID); err != nil {
		return nil, err
	}

	log.Info("login succeeded", slog.String("account_id", acct.ID))
	return s.issuePair(acct.ID, now)
}

// recordFailure advances the lockout state machine after a failed password
// check. The re-read and write share one transaction so two concurrent
// failures cannot race past the threshold with only one of them counted.
func (s *AuthService) recordFailure(ctx context.Context, accountID string, now time.Time) error {
	log := slogx.FromContext(ctx)
	policy := lockoutPolicy{Threshold: s.lockoutThreshold(), Duration: s.lockoutDuration()}

	outcome := error(ErrInvalidCredentials)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		fresh, err := tx.Accounts().GetAccountByID(ctx, accountID)
		if err != nil {
			return err
		}

		// A concurrent attempt may have locked the account since our
		// first read; don't push the counter past the threshold.
		if fresh.Locked(now) {
			outcome = &AccountLockedError{RetryAfter: fresh.LockedUntil.Sub(now)}
			return nil
		}

		attempts, lockedUntil := policy.advance(fresh, now)
		if err := tx.Accounts().RecordLoginFailure(ctx, accountID, attempts, now, lockedUntil); err != nil {
			return err
		}

		if lockedUntil != nil {
			log.Warn("account locked after repeated failures",
				slog.String("account_id", accountID),
				slog.Int("attempts", attempts),
				slog.Time("locked_until", *lockedUntil),
			)
			outcome = &AccountLockedError{RetryAfter: lockedUntil.Sub(now)}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return outcome
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated; it stays valid until its natural expiry.
// The subject account must still exist and must not be locked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.Verifier.Verify(refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		log.Warn("refresh token rejected", slog.Any("err", err))
		return "", ErrInvalidRefreshToken
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("refresh token for missing account", slog.String("account_id", claims.Subject))
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}

	if acct.Locked(now) {
		log.Warn("refresh attempt for locked account", slog.String("account_id", acct.ID))
		return "", &AccountLockedError{RetryAfter: acct.LockedUntil.Sub(now)}
	}

	access, err := s.Signer.Sign(jwtx.NewClaims(acct.ID, jwtx.TokenTypeAccess, s.Issuer, s.accessTTL(), now))
	if err != nil {
		return "", err
	}

	return access, nil
}

// Authorize verifies a bearer access token and returns the subject account
// id for downstream handlers. Every verification failure collapses into
// ErrUnauthorized; the specific reason only reaches the log.
func (s *AuthService) Authorize(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.Verifier.Verify(accessToken, jwtx.TokenTypeAccess)
	if err != nil {
		slogx.FromContext(ctx).Warn("access token rejected", slog.Any("err", err))
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

func (s *AuthService) issuePair(accountID string, now time.Time) (*domain.TokenPair, error) {
	access, err := s.Signer.Sign(jwtx.NewClaims(accountID, jwtx.TokenTypeAccess, s.Issuer, s.accessTTL(), now))
	if err != nil {
		return nil, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewClaims(accountID, jwtx.TokenTypeRefresh, s.Issuer, s.refreshTTL(), now))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessTTL(),
		AccountID:    accountID,
	}, nil
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

func (s *AuthService) lockoutThreshold() int {
	if s.LockoutThreshold > 0 {
		return s.LockoutThreshold
	}
	return DefaultLockoutThreshold
}

func (s *AuthService) lockoutDuration() time.Duration {
	if s.LockoutDuration > 0 {
		return s.LockoutDuration
	}
	return DefaultLockoutDuration
}
