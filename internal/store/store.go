package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskdock/taskdock/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Accounts() Accounts
	Tasks() Tasks

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Use it for multi-step operations
	// that must be atomic, like lockout-counter advances.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail is used during login. The email must already be
	// normalized by the caller.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// RecordLoginFailure writes the advanced lockout state after a failed
	// password check: the new counter, the attempt timestamp, and the new
	// lockout expiry (nil while the account stays open). Run inside
	// WithTx together with the read that computed the transition.
	RecordLoginFailure(ctx context.Context, id string, attempts int, at time.Time, lockedUntil *time.Time) error

	// ResetLoginState zeroes the failure counter and clears the lockout
	// and last-failure timestamps after a successful authentication.
	ResetLoginState(ctx context.Context, id string) error

	// UpdatePasswordHash sets a new bcrypt digest for the account.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// ReleaseExpiredLockouts resets the counters of accounts whose
	// lockout window has passed. Housekeeping only; login evaluates
	// expiry lazily and does not depend on this running.
	ReleaseExpiredLockouts(ctx context.Context, now time.Time) (int64, error)

	// DeleteAccount cascades to tasks (per schema).
	DeleteAccount(ctx context.Context, id string) error

	// CountAccounts returns the number of registered accounts.
	CountAccounts(ctx context.Context) (int64, error)
}

// TaskFilter narrows ListTasks. Limit of 0 falls back to the driver default.
type TaskFilter struct {
	IncludeCompleted bool
	Limit            int
	Offset           int
}

type Tasks interface {
	// CreateTask inserts a new task (id is ULID, provided by the service).
	CreateTask(ctx context.Context, t domain.Task) error

	// GetTaskByID returns a task only when it belongs to accountID.
	GetTaskByID(ctx context.Context, id, accountID string) (domain.Task, error)

	// ListTasks returns the account's tasks ordered by due date then
	// creation time.
	ListTasks(ctx context.Context, accountID string, f TaskFilter) ([]domain.Task, error)

	// UpdateTask rewrites title, description and due date, bumping
	// updated_at. Scoped to the owning account.
	UpdateTask(ctx context.Context, t domain.Task) error

	// SetTaskCompleted flips the completion flag.
	SetTaskCompleted(ctx context.Context, id, accountID string, completed bool) error

	// DeleteTask removes a task owned by accountID.
	DeleteTask(ctx context.Context, id, accountID string) error
}
