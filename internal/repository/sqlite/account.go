package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/repository"
)

const accountColumns = `id, username, name, family, email, phone, password_hash, created_at, updated_at`

func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Name,
		&a.Family,
		&a.Email,
		&a.Phone,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAccountByUsernameOrEmail returns the first account matching either
// identifier. Lowest ID wins if the two identifiers belong to different
// accounts.
func (db *DB) FindAccountByUsernameOrEmail(ctx context.Context, username, email string) (*model.Account, error) {
	a, err := scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE username = ? OR email = ?
		 ORDER BY id LIMIT 1`,
		nullIfEmpty(username), nullIfEmpty(email),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "account not found"}
		}
		return nil, fmt.Errorf("sqlite: finding account %q/%q: %w", username, email, err)
	}
	return a, nil
}

// GetAccountByID retrieves an account by its ID.
// Returns apperror.ErrNotFound if no account exists with that ID.
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	a, err := scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("sqlite: getting account %d: %w", id, err)
	}
	return a, nil
}

// CreateAccount inserts a new account and fills in ID and timestamps.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	return db.insertAccount(ctx, db.conn, account)
}

func (db *DB) insertAccount(ctx context.Context, q queryer, account *model.Account) error {
	now := db.now()

	res, err := q.ExecContext(ctx,
		`INSERT INTO accounts (username, name, family, email, phone, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.Username,
		account.Name,
		account.Family,
		account.Email,
		account.Phone,
		account.PasswordHash,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(repository.DuplicateIdentityMessage)
		}
		return fmt.Errorf("sqlite: inserting account %q: %w", account.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading account id: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// UpdateAccount writes every mutable column back.
//
// Changing the email to one that another account already uses is rejected
// by the UNIQUE constraint and reported as a conflict.
func (db *DB) UpdateAccount(ctx context.Context, account *model.Account) error {
	now := db.now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE accounts
		 SET name = ?, family = ?, email = ?, phone = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		account.Name,
		account.Family,
		account.Email,
		account.Phone,
		account.PasswordHash,
		now,
		account.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Email already in use")
		}
		return fmt.Errorf("sqlite: updating account %d: %w", account.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("account", account.ID)
	}

	account.UpdatedAt = now
	return nil
}

// CreateAccountWithFirstGame inserts both rows in one transaction.
//
// If the game insert fails the account insert is rolled back too, so no
// account ever exists without its first game.
func (db *DB) CreateAccountWithFirstGame(ctx context.Context, account *model.Account, game *model.Game) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning registration tx: %w", err)
	}

	if err := db.insertAccount(ctx, tx, account); err != nil {
		_ = tx.Rollback()
		return err
	}

	game.OwnerID = account.ID
	if err := db.insertGame(ctx, tx, game); err != nil {
		_ = tx.Rollback()
		account.ID = 0
		return err
	}

	if err := tx.Commit(); err != nil {
		account.ID = 0
		game.ID = 0
		return fmt.Errorf("sqlite: committing registration tx: %w", err)
	}
	return nil
}
