package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/repository"
)

// ProfileService reads and edits the caller's own account.
type ProfileService struct {
	accounts repository.AccountRepository
	logger   *slog.Logger
}

func NewProfileService(accounts repository.AccountRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{accounts: accounts, logger: logger}
}

// Get returns the account for id.
func (s *ProfileService) Get(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching account %d: %w", id, err)
	}
	return account, nil
}

// Update applies the provided fields to the caller's account.
//
// Name, family and email may be omitted but not blanked; phone may be set to
// empty. Taking an email another account uses is a conflict.
func (s *ProfileService) Update(ctx context.Context, id int64, in model.ProfileUpdate) (*model.Account, error) {
	for _, f := range []struct {
		name  string
		value *string
		req   bool
	}{
		{"name", in.Name, true},
		{"family", in.Family, true},
		{"email", in.Email, true},
		{"phone", in.Phone, false},
	} {
		if f.value == nil {
			continue
		}
		*f.value = strings.TrimSpace(*f.value)
		if f.req && *f.value == "" {
			return nil, apperror.ValidationFailed(f.name, fmt.Sprintf(MsgFieldMustNotBeVoid, f.name))
		}
	}

	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching account %d: %w", id, err)
	}

	in.Apply(account)

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("service/profile: updating account %d: %w", id, err)
	}

	s.logger.Info("profile updated", slog.Int64("accountID", id))
	return account, nil
}
