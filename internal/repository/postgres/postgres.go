// Package postgres implements repository.Store on PostgreSQL through pgx.
//
// The schema is owned by the embedded golang-migrate migrations in
// migrations/. Store itself never issues DDL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/sakif/scoreboard/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// pool is the subset of *pgxpool.Pool the store uses. pgxmock.PgxPoolIface
// satisfies it too, which is how the unit tests run without a server.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// querier is what both the pool and a pgx.Tx offer for single statements.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool pool
}

// New wraps an existing pool.
func New(p pool) *Store {
	return &Store{pool: p}
}

// ConnectAttempts bounds how many times Open pings before giving up.
const ConnectAttempts = 5

// Open creates a pgx pool for databaseURL and waits for the server to answer
// a ping, retrying with exponential backoff. A database container started
// alongside the service is usually a few seconds behind it.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_POOL_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(ConnectAttempts-1, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		p.Close()
		return nil, oops.Code("DB_PING_FAILED").With("attempts", ConnectAttempts).Wrap(err)
	}

	return New(p), nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.ForeignKeyViolation
}
