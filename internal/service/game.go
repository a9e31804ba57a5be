package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/repository"
)

// GameService manages an account's games and guards them against
// edits from other accounts.
type GameService struct {
	games  repository.GameRepository
	logger *slog.Logger
}

func NewGameService(games repository.GameRepository, logger *slog.Logger) *GameService {
	return &GameService{games: games, logger: logger}
}

// Create adds a game for ownerID. Omitted score and level start at 0.
// It returns the new game and the owner's full list, newest first.
func (s *GameService) Create(ctx context.Context, ownerID int64, in model.GameUpdate) (*model.Game, []model.Game, error) {
	game := &model.Game{OwnerID: ownerID}
	in.Apply(game)

	if err := s.games.CreateGame(ctx, game); err != nil {
		return nil, nil, fmt.Errorf("service/game: creating game for account %d: %w", ownerID, err)
	}

	games, err := s.games.ListGamesByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/game: listing games for account %d: %w", ownerID, err)
	}

	s.logger.Info("game created",
		slog.Int64("accountID", ownerID),
		slog.Int64("gameID", game.ID),
	)
	return game, games, nil
}

// List returns ownerID's games, newest first.
func (s *GameService) List(ctx context.Context, ownerID int64) ([]model.Game, error) {
	games, err := s.games.ListGamesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/game: listing games for account %d: %w", ownerID, err)
	}
	return games, nil
}

// Update changes score and/or level of a game the caller owns.
//
// A game that does not exist and a game owned by someone else produce the
// same Forbidden error, so callers cannot probe for other accounts' IDs.
func (s *GameService) Update(ctx context.Context, callerID, gameID int64, in model.GameUpdate) (*model.Game, error) {
	if gameID <= 0 {
		return nil, apperror.Forbidden(MsgGameNotOwned)
	}

	game, err := s.games.GetGameByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("game update refused", slog.String("reason", "missing"), slog.Int64("gameID", gameID))
			return nil, apperror.Forbidden(MsgGameNotOwned)
		}
		return nil, fmt.Errorf("service/game: fetching game %d: %w", gameID, err)
	}
	if game.OwnerID != callerID {
		s.logger.Debug("game update refused",
			slog.String("reason", "not owner"),
			slog.Int64("gameID", gameID),
			slog.Int64("accountID", callerID),
		)
		return nil, apperror.Forbidden(MsgGameNotOwned)
	}

	in.Apply(game)

	if err := s.games.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("service/game: updating game %d: %w", gameID, err)
	}
	return game, nil
}
