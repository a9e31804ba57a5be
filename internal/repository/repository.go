// Package repository declares the storage contracts the services depend on.
//
// Three backends implement Store: sqlite (default, embedded), postgres and
// memory. All of them must enforce username and email uniqueness themselves
// and report a violation as an apperror.ErrConflict, so that two concurrent
// registrations for the same name cannot both succeed no matter what the
// service layer checked beforehand.
package repository

import (
	"context"

	"github.com/sakif/scoreboard/internal/model"
)

// DuplicateIdentityMessage is the conflict text for a username/email clash.
// It never says which of the two fields collided.
const DuplicateIdentityMessage = "Username or email already in use"

type AccountRepository interface {
	// FindAccountByUsernameOrEmail returns an account whose username equals
	// username or whose email equals email. Either argument may be empty,
	// in which case it matches nothing. Returns apperror.ErrNotFound when
	// nothing matches.
	FindAccountByUsernameOrEmail(ctx context.Context, username, email string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	// CreateAccount assigns ID and timestamps on success.
	CreateAccount(ctx context.Context, account *model.Account) error
	// UpdateAccount writes the profile fields and the password hash back.
	UpdateAccount(ctx context.Context, account *model.Account) error
}

type GameRepository interface {
	// CreateGame assigns ID and timestamps on success. The owner must exist.
	CreateGame(ctx context.Context, game *model.Game) error
	GetGameByID(ctx context.Context, id int64) (*model.Game, error)
	// ListGamesByOwner returns games newest first, ties broken by higher ID.
	ListGamesByOwner(ctx context.Context, ownerID int64) ([]model.Game, error)
	UpdateGame(ctx context.Context, game *model.Game) error
}

// Store is everything a backend provides.
type Store interface {
	AccountRepository
	GameRepository

	// CreateAccountWithFirstGame inserts the account and then the game, owned
	// by the new account, in a single transaction. Either both rows exist
	// afterwards or neither does.
	CreateAccountWithFirstGame(ctx context.Context, account *model.Account, game *model.Game) error

	Close() error
}
