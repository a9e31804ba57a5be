// Package service contains the business rules of the scoreboard.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services return either an *apperror.AppError (a kind the client may see)
// or a plain wrapped error, which the HTTP layer turns into a generic 500.
// Which of several things went wrong during login or token checks is only
// ever logged, never returned.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/auth"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/repository"
)

// Client-visible messages.
const (
	MsgMissingFields      = "Missing required fields"
	MsgPasswordsDiffer    = "Passwords do not match"
	MsgPasswordTooLong    = "Password must be 72 bytes or fewer"
	MsgInvalidToken       = "Invalid or expired token"
	MsgGameNotOwned       = "Game not found or not owned"
	MsgFieldMustNotBeVoid = "%s must not be empty"
)

// AuthService handles registration, login and token resolution.
type AuthService struct {
	store     repository.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the raw registration form. Phone is optional.
type RegisterInput struct {
	Name            string
	Family          string
	Username        string
	Password        string
	ConfirmPassword string
	Email           string
	Phone           string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Account *model.Account
	Games   []model.Game
	Token   string
}

// Register creates an account together with its first game and issues a
// token for it.
//
// Checks run in this order and the first failure wins:
//  1. every required field present (after trimming, passwords untrimmed)
//  2. password equals confirmation
//  3. username and email not already taken
//
// Step 3 is repeated by the store's UNIQUE constraints inside the insert, so
// a concurrent registration that slips past the lookup still gets a conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Family = strings.TrimSpace(in.Family)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" || in.Family == "" || in.Username == "" ||
		in.Password == "" || in.ConfirmPassword == "" || in.Email == "" {
		return nil, apperror.ValidationFailed("", MsgMissingFields)
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperror.ValidationFailed("confirmPassword", MsgPasswordsDiffer)
	}

	_, err := s.store.FindAccountByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(repository.DuplicateIdentityMessage)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking identity %q: %w", in.Username, err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", MsgPasswordTooLong)
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	account := &model.Account{
		Username:     in.Username,
		Name:         in.Name,
		Family:       in.Family,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	first := &model.Game{Score: 0, Level: 0}

	if err := s.store.CreateAccountWithFirstGame(ctx, account, first); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("registration lost uniqueness race", slog.String("username", in.Username))
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating account %q: %w", in.Username, err)
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for account %d: %w", account.ID, err)
	}

	s.logger.Info("account registered",
		slog.Int64("accountID", account.ID),
		slog.String("username", account.Username),
	)

	return &AuthResult{
		Account: account,
		Games:   []model.Game{*first},
		Token:   token,
	}, nil
}

// Login checks a username-or-email plus password and issues a token.
//
// Every way of failing, whether an empty field, an unknown identifier or a
// wrong password, returns the same InvalidCredentials error. For unknown
// identifiers a dummy bcrypt comparison still runs so the response time
// does not reveal whether the account exists.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.InvalidCredentials()
	}

	account, err := s.store.FindAccountByUsernameOrEmail(ctx, identifier, identifier)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			s.logger.Debug("login failed", slog.String("reason", "unknown identifier"))
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", identifier, err)
	}

	ok, err := s.passwords.Verify(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: verifying password for account %d: %w", account.ID, err)
	}
	if !ok {
		s.logger.Debug("login failed",
			slog.String("reason", "wrong password"),
			slog.Int64("accountID", account.ID),
		)
		return nil, apperror.InvalidCredentials()
	}

	games, err := s.store.ListGamesByOwner(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing games for account %d: %w", account.ID, err)
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for account %d: %w", account.ID, err)
	}

	s.logger.Info("account logged in", slog.Int64("accountID", account.ID))

	return &AuthResult{Account: account, Games: games, Token: token}, nil
}

// Authenticate resolves a bearer token to the ID of an account that still
// exists. It satisfies auth.Authenticator.
//
// A bad token and a token for a missing account return the same
// Unauthenticated error. A store failure is returned as an internal error.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	accountID, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("token rejected", slog.String("error", err.Error()))
		return 0, apperror.Unauthenticated(MsgInvalidToken)
	}

	if _, err := s.store.GetAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("token for missing account", slog.Int64("accountID", accountID))
			return 0, apperror.Unauthenticated(MsgInvalidToken)
		}
		return 0, fmt.Errorf("service/auth: resolving account %d: %w", accountID, err)
	}

	return accountID, nil
}

var _ auth.Authenticator = (*AuthService)(nil)
