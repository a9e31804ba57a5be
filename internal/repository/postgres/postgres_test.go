package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
)

var (
	accountCols = []string{"id", "username", "name", "family", "email", "phone", "password_hash", "created_at", "updated_at"}
	gameCols    = []string{"id", "owner_id", "score", "level", "created_at", "updated_at"}
	stamp       = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestFindAccountByUsernameOrEmail(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   error
		errMsg    string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q(`FROM accounts`)).
					WithArgs("alice", "alice").
					WillReturnRows(pgxmock.NewRows(accountCols).
						AddRow(int64(3), "alice", "A", "L", "alice@example.com", "", "hash", stamp, stamp))
			},
			wantID: 3,
		},
		{
			name: "no rows is not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q(`FROM accounts`)).
					WithArgs("alice", "alice").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: apperror.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q(`FROM accounts`)).
					WithArgs("alice", "alice").
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			got, err := store.FindAccountByUsernameOrEmail(context.Background(), "alice", "alice")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.False(t, errors.Is(err, apperror.ErrNotFound))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, got.ID)
				assert.Equal(t, "hash", got.PasswordHash)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetAccountByID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`FROM accounts WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetAccountByID(context.Background(), 9)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`INSERT INTO accounts`)).
		WithArgs("bob", "B", "O", "bob@example.com", "", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(12), stamp, stamp))

	a := &model.Account{Username: "bob", Name: "B", Family: "O", Email: "bob@example.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateAccount(context.Background(), a))

	assert.Equal(t, int64(12), a.ID)
	assert.Equal(t, stamp, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_UniqueViolationIsConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`INSERT INTO accounts`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := store.CreateAccount(context.Background(), &model.Account{Username: "bob"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccount(t *testing.T) {
	tests := []struct {
		name    string
		result  func(e *pgxmock.ExpectedQuery)
		wantErr error
	}{
		{
			name: "ok",
			result: func(e *pgxmock.ExpectedQuery) {
				e.WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(stamp))
			},
		},
		{
			name:    "missing row",
			result:  func(e *pgxmock.ExpectedQuery) { e.WillReturnError(pgx.ErrNoRows) },
			wantErr: apperror.ErrNotFound,
		},
		{
			name: "email taken",
			result: func(e *pgxmock.ExpectedQuery) {
				e.WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: apperror.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.result(mock.ExpectQuery(q(`UPDATE accounts`)).
				WithArgs("N", "F", "new@example.com", "555", "hash", int64(4)))

			a := &model.Account{ID: 4, Name: "N", Family: "F", Email: "new@example.com", Phone: "555", PasswordHash: "hash"}
			err := store.UpdateAccount(context.Background(), a)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, stamp, a.UpdatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateAccountWithFirstGame_Commits(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(`INSERT INTO accounts`)).
		WithArgs("carol", "C", "A", "carol@example.com", "", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), stamp, stamp))
	mock.ExpectQuery(q(`INSERT INTO games`)).
		WithArgs(int64(5), 0, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(50), stamp, stamp))
	mock.ExpectCommit()

	a := &model.Account{Username: "carol", Name: "C", Family: "A", Email: "carol@example.com", PasswordHash: "hash"}
	g := &model.Game{}
	require.NoError(t, store.CreateAccountWithFirstGame(context.Background(), a, g))

	assert.Equal(t, int64(5), a.ID)
	assert.Equal(t, int64(50), g.ID)
	assert.Equal(t, int64(5), g.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountWithFirstGame_ConflictRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(`INSERT INTO accounts`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	err := store.CreateAccountWithFirstGame(context.Background(), &model.Account{Username: "carol"}, &model.Game{})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountWithFirstGame_GameFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(`INSERT INTO accounts`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(6), stamp, stamp))
	mock.ExpectQuery(q(`INSERT INTO games`)).
		WithArgs(int64(6), 0, 0).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	a := &model.Account{Username: "dan"}
	err := store.CreateAccountWithFirstGame(context.Background(), a, &model.Game{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGame_ForeignKeyIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`INSERT INTO games`)).
		WithArgs(int64(404), 1, 2).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	err := store.CreateGame(context.Background(), &model.Game{OwnerID: 404, Score: 1, Level: 2})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGameByID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`FROM games WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(gameCols).AddRow(int64(7), int64(2), 30, 4, stamp, stamp))

	g, err := store.GetGameByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), g.OwnerID)
	assert.Equal(t, 30, g.Score)
	assert.Equal(t, 4, g.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGamesByOwner(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`ORDER BY created_at DESC, id DESC`)).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(gameCols).
			AddRow(int64(9), int64(2), 0, 0, stamp.Add(time.Minute), stamp).
			AddRow(int64(8), int64(2), 5, 1, stamp, stamp))

	games, err := store.ListGamesByOwner(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, int64(9), games[0].ID)
	assert.Equal(t, int64(8), games[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGamesByOwner_EmptyIsNotNil(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`FROM games`)).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(gameCols))

	games, err := store.ListGamesByOwner(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, games)
	assert.Empty(t, games)
}

func TestUpdateGame_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(`UPDATE games`)).
		WithArgs(1, 2, int64(3)).
		WillReturnError(pgx.ErrNoRows)

	err := store.UpdateGame(context.Background(), &model.Game{ID: 3, Score: 1, Level: 2})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
