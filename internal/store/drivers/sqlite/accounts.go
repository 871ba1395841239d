package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/store"
)

type accountsRepo struct {
	db querier
}

const accountColumns = `id, email, password_hash, failed_login_attempts, locked_until, last_failed_login, created_at`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, failed_login_attempts, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		a.ID, a.Email, a.PasswordHash, a.CreatedAt,
	)
	return mapConflict(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) RecordLoginFailure(
	ctx context.Context,
	id string,
	attempts int,
	at time.Time,
	lockedUntil *time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET failed_login_attempts = ?,
		    last_failed_login     = ?,
		    locked_until          = ?
		WHERE id = ?`,
		attempts, at, mapOptionalTime(lockedUntil), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) ResetLoginState(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET failed_login_attempts = 0,
		    last_failed_login     = NULL,
		    locked_until          = NULL
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE id = ?`, newHash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) ReleaseExpiredLockouts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET failed_login_attempts = 0,
		    last_failed_login     = NULL,
		    locked_until          = NULL
		WHERE locked_until IS NOT NULL AND locked_until <= ?`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a               domain.Account
		lockedUntil     sql.NullTime
		lastFailedLogin sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FailedLoginAttempts,
		&lockedUntil,
		&lastFailedLogin,
		&a.CreatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.LockedUntil = mapNullTimePtr(lockedUntil)
	a.LastFailedLogin = mapNullTimePtr(lastFailedLogin)
	return a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
