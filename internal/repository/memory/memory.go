// Package memory is a map-backed repository.Store.
//
// A single mutex guards every map, which makes each method, including
// CreateAccountWithFirstGame, atomic with respect to the others. Data lives
// only as long as the process.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	accounts   map[int64]model.Account
	byUsername map[string]int64
	byEmail    map[string]int64
	games      map[int64]model.Game

	nextAccountID int64
	nextGameID    int64

	now func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		accounts:   make(map[int64]model.Account),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		games:      make(map[int64]model.Game),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) FindAccountByUsernameOrEmail(_ context.Context, username, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []int64
	if id, ok := s.byUsername[username]; ok && username != "" {
		hits = append(hits, id)
	}
	if id, ok := s.byEmail[email]; ok && email != "" {
		hits = append(hits, id)
	}
	if len(hits) == 0 {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "account not found"}
	}
	a := s.accounts[slices.Min(hits)]
	return &a, nil
}

func (s *Store) GetAccountByID(_ context.Context, id int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	return &a, nil
}

func (s *Store) CreateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertAccountLocked(account)
}

func (s *Store) insertAccountLocked(account *model.Account) error {
	_, userTaken := s.byUsername[account.Username]
	_, emailTaken := s.byEmail[account.Email]
	if userTaken || emailTaken {
		return apperror.Conflict(repository.DuplicateIdentityMessage)
	}

	now := s.now()
	s.nextAccountID++
	account.ID = s.nextAccountID
	account.CreatedAt = now
	account.UpdatedAt = now

	s.accounts[account.ID] = *account
	s.byUsername[account.Username] = account.ID
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *Store) UpdateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return apperror.NotFound("account", account.ID)
	}
	if id, taken := s.byEmail[account.Email]; taken && id != account.ID {
		return apperror.Conflict("Email already in use")
	}

	// Username is immutable after registration.
	account.Username = current.Username
	account.CreatedAt = current.CreatedAt
	account.UpdatedAt = s.now()

	delete(s.byEmail, current.Email)
	s.byEmail[account.Email] = account.ID
	s.accounts[account.ID] = *account
	return nil
}

func (s *Store) CreateGame(_ context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertGameLocked(game)
}

func (s *Store) insertGameLocked(game *model.Game) error {
	if _, ok := s.accounts[game.OwnerID]; !ok {
		return apperror.NotFound("account", game.OwnerID)
	}

	now := s.now()
	s.nextGameID++
	game.ID = s.nextGameID
	game.CreatedAt = now
	game.UpdatedAt = now

	s.games[game.ID] = *game
	return nil
}

func (s *Store) GetGameByID(_ context.Context, id int64) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	return &g, nil
}

func (s *Store) ListGamesByOwner(_ context.Context, ownerID int64) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	games := make([]model.Game, 0)
	for _, g := range s.games {
		if g.OwnerID == ownerID {
			games = append(games, g)
		}
	}
	slices.SortFunc(games, func(a, b model.Game) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return games, nil
}

func (s *Store) UpdateGame(_ context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.games[game.ID]
	if !ok {
		return apperror.NotFound("game", game.ID)
	}

	current.Score = game.Score
	current.Level = game.Level
	current.UpdatedAt = s.now()
	s.games[game.ID] = current

	*game = current
	return nil
}

// CreateAccountWithFirstGame inserts both under one lock hold, so readers
// never observe the account without its game.
func (s *Store) CreateAccountWithFirstGame(_ context.Context, account *model.Account, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insertAccountLocked(account); err != nil {
		return err
	}
	game.OwnerID = account.ID
	return s.insertGameLocked(game)
}
