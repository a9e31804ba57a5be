package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/repository"
)

const accountColumns = `id, username, name, family, email, phone, password_hash, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
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

// FindAccountByUsernameOrEmail matches either identifier; empty ones match
// nothing.
func (s *Store) FindAccountByUsernameOrEmail(ctx context.Context, username, email string) (*model.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		 ORDER BY id LIMIT 1`,
		username, email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "account not found"}
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	return a, nil
}

func (s *Store) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("account_id", id).Wrap(err)
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	return insertAccount(ctx, s.pool, account)
}

func insertAccount(ctx context.Context, q querier, account *model.Account) error {
	err := q.QueryRow(ctx,
		`INSERT INTO accounts (username, name, family, email, phone, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		account.Username,
		account.Name,
		account.Family,
		account.Email,
		account.Phone,
		account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(repository.DuplicateIdentityMessage)
		}
		return oops.Code("ACCOUNT_INSERT_FAILED").With("username", account.Username).Wrap(err)
	}
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, account *model.Account) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET name = $1, family = $2, email = $3, phone = $4, password_hash = $5, updated_at = now()
		 WHERE id = $6
		 RETURNING updated_at`,
		account.Name,
		account.Family,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.ID,
	).Scan(&account.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperror.NotFound("account", account.ID)
		case isUniqueViolation(err):
			return apperror.Conflict("Email already in use")
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("account_id", account.ID).Wrap(err)
	}
	return nil
}

// CreateAccountWithFirstGame runs both inserts in one transaction.
func (s *Store) CreateAccountWithFirstGame(ctx context.Context, account *model.Account, game *model.Game) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.Code("REGISTRATION_TX_FAILED").With("operation", "begin").Wrap(err)
	}

	if err := insertAccount(ctx, tx, account); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	game.OwnerID = account.ID
	if err := insertGame(ctx, tx, game); err != nil {
		_ = tx.Rollback(ctx)
		account.ID = 0
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		account.ID = 0
		game.ID = 0
		return oops.Code("REGISTRATION_TX_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}
