package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
)

// CreateGame inserts a new game for game.OwnerID.
// Returns apperror.ErrNotFound if the owner does not exist.
func (db *DB) CreateGame(ctx context.Context, game *model.Game) error {
	return db.insertGame(ctx, db.conn, game)
}

func (db *DB) insertGame(ctx context.Context, q queryer, game *model.Game) error {
	now := db.now()

	res, err := q.ExecContext(ctx,
		`INSERT INTO games (owner_id, score, level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		game.OwnerID,
		game.Score,
		game.Level,
		now,
		now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("account", game.OwnerID)
		}
		return fmt.Errorf("sqlite: inserting game for account %d: %w", game.OwnerID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading game id: %w", err)
	}

	game.ID = id
	game.CreatedAt = now
	game.UpdatedAt = now
	return nil
}

// GetGameByID retrieves a game by its ID.
// Returns apperror.ErrNotFound if no game exists with that ID.
func (db *DB) GetGameByID(ctx context.Context, id int64) (*model.Game, error) {
	var g model.Game

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, score, level, created_at, updated_at
		 FROM games WHERE id = ?`,
		id,
	).Scan(&g.ID, &g.OwnerID, &g.Score, &g.Level, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %d: %w", id, err)
	}

	return &g, nil
}

// ListGamesByOwner returns the owner's games, newest first.
//
// Always returns a non-nil slice so the JSON response is [] and not null.
func (db *DB) ListGamesByOwner(ctx context.Context, ownerID int64) ([]model.Game, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, score, level, created_at, updated_at
		 FROM games
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games for account %d: %w", ownerID, err)
	}
	defer rows.Close()

	games := make([]model.Game, 0)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Score, &g.Level, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating game rows: %w", err)
	}

	return games, nil
}

// UpdateGame writes score and level back.
// Ownership is not checked here; that is the service's job.
func (db *DB) UpdateGame(ctx context.Context, game *model.Game) error {
	now := db.now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE games SET score = ?, level = ?, updated_at = ? WHERE id = ?`,
		game.Score,
		game.Level,
		now,
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating game %d: %w", game.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("game", game.ID)
	}

	game.UpdatedAt = now
	return nil
}
