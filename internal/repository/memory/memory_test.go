package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
)

func newAccount(username string) *model.Account {
	return &model.Account{
		Username:     username,
		Name:         "N",
		Family:       "F",
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
}

func TestCreateAndFindAccount(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := newAccount("alice")
	require.NoError(t, s.CreateAccount(ctx, a))
	assert.Equal(t, int64(1), a.ID)

	byName, err := s.FindAccountByUsernameOrEmail(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byName.ID)

	byEmail, err := s.FindAccountByUsernameOrEmail(ctx, "", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	_, err = s.FindAccountByUsernameOrEmail(ctx, "", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateAccount_Conflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, newAccount("bob")))

	dupName := newAccount("bob")
	dupName.Email = "x@example.com"
	assert.ErrorIs(t, s.CreateAccount(ctx, dupName), apperror.ErrConflict)

	dupEmail := newAccount("bobby")
	dupEmail.Email = "bob@example.com"
	assert.ErrorIs(t, s.CreateAccount(ctx, dupEmail), apperror.ErrConflict)
}

func TestReturnedAccountsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount("carol")
	require.NoError(t, s.CreateAccount(ctx, a))

	got, err := s.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "N", again.Name)
}

func TestUpdateAccount_EmailIndexFollows(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount("dave")
	require.NoError(t, s.CreateAccount(ctx, a))
	other := newAccount("erin")
	require.NoError(t, s.CreateAccount(ctx, other))

	a.Email = "erin@example.com"
	assert.ErrorIs(t, s.UpdateAccount(ctx, a), apperror.ErrConflict)

	a.Email = "dave@new.example.com"
	require.NoError(t, s.UpdateAccount(ctx, a))

	_, err := s.FindAccountByUsernameOrEmail(ctx, "", "dave@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	found, err := s.FindAccountByUsernameOrEmail(ctx, "", "dave@new.example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
}

func TestListGamesByOwner_Order(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s := New(WithClock(func() time.Time {
		tick++
		// Two games share a timestamp to exercise the id tiebreak.
		return base.Add(time.Duration(tick/2) * time.Second)
	}))
	ctx := context.Background()
	owner := newAccount("frank")
	require.NoError(t, s.CreateAccount(ctx, owner))

	for i := 0; i < 4; i++ {
		require.NoError(t, s.CreateGame(ctx, &model.Game{OwnerID: owner.ID, Score: i}))
	}

	games, err := s.ListGamesByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, games, 4)
	for i := 1; i < len(games); i++ {
		assert.Greater(t, games[i-1].ID, games[i].ID)
	}
}

func TestCreateGame_UnknownOwner(t *testing.T) {
	s := New()
	err := s.CreateGame(context.Background(), &model.Game{OwnerID: 5})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateGame(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := newAccount("grace")
	require.NoError(t, s.CreateAccount(ctx, owner))
	g := &model.Game{OwnerID: owner.ID}
	require.NoError(t, s.CreateGame(ctx, g))

	require.NoError(t, s.UpdateGame(ctx, &model.Game{ID: g.ID, Score: 50, Level: 3}))

	got, err := s.GetGameByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, owner.ID, got.OwnerID)

	assert.ErrorIs(t, s.UpdateGame(ctx, &model.Game{ID: 99}), apperror.ErrNotFound)
}

func TestCreateAccountWithFirstGame_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	const workers = 16
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := newAccount("same")
			a.Email = fmt.Sprintf("same%d@example.com", i)
			results <- s.CreateAccountWithFirstGame(ctx, a, &model.Game{})
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, conflict int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, apperror.ErrConflict):
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflict)
	assert.Len(t, s.games, 1)
}
