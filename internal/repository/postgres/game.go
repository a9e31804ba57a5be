package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
)

const gameColumns = `id, owner_id, score, level, created_at, updated_at`

func (s *Store) CreateGame(ctx context.Context, game *model.Game) error {
	return insertGame(ctx, s.pool, game)
}

func insertGame(ctx context.Context, q querier, game *model.Game) error {
	err := q.QueryRow(ctx,
		`INSERT INTO games (owner_id, score, level)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		game.OwnerID,
		game.Score,
		game.Level,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("account", game.OwnerID)
		}
		return oops.Code("GAME_INSERT_FAILED").With("owner_id", game.OwnerID).Wrap(err)
	}
	return nil
}

func (s *Store) GetGameByID(ctx context.Context, id int64) (*model.Game, error) {
	var g model.Game
	err := s.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.OwnerID, &g.Score, &g.Level, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("game", id)
		}
		return nil, oops.Code("GAME_GET_FAILED").With("game_id", id).Wrap(err)
	}
	return &g, nil
}

// ListGamesByOwner returns games newest first. Never nil.
func (s *Store) ListGamesByOwner(ctx context.Context, ownerID int64) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, oops.Code("GAME_LIST_FAILED").With("owner_id", ownerID).Wrap(err)
	}
	defer rows.Close()

	games := make([]model.Game, 0)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Score, &g.Level, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, oops.Code("GAME_LIST_FAILED").With("owner_id", ownerID).Wrap(err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GAME_LIST_FAILED").With("owner_id", ownerID).Wrap(err)
	}
	return games, nil
}

func (s *Store) UpdateGame(ctx context.Context, game *model.Game) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE games SET score = $1, level = $2, updated_at = clock_timestamp()
		 WHERE id = $3
		 RETURNING updated_at`,
		game.Score,
		game.Level,
		game.ID,
	).Scan(&game.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("game", game.ID)
		}
		return oops.Code("GAME_UPDATE_FAILED").With("game_id", game.ID).Wrap(err)
	}
	return nil
}
