package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/auth"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/service"
)

// GameHandler serves the game endpoints. All of them require auth.
//
//   - HandleCreate → POST /auth/game
//   - HandleList   → GET  /auth/games
//   - HandleUpdate → PUT  /update/game
type GameHandler struct {
	games  *service.GameService
	logger *slog.Logger
}

func NewGameHandler(games *service.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, logger: logger}
}

type createGameRequest struct {
	Score *FlexInt `json:"score"`
	Level *FlexInt `json:"level"`
}

type createGameResponse struct {
	Message string       `json:"message"`
	GameID  int64        `json:"gameId"`
	Game    *model.Game  `json:"game"`
	Games   []model.Game `json:"games"`
}

type listGamesResponse struct {
	UserID     int64        `json:"userId"`
	TotalGames int          `json:"totalGames"`
	Games      []model.Game `json:"games"`
}

type updateGameRequest struct {
	GameID *FlexInt `json:"gameId"`
	Score  *FlexInt `json:"score"`
	Level  *FlexInt `json:"level"`
}

type updateGameResponse struct {
	Message string      `json:"message"`
	Game    *model.Game `json:"game"`
}

// HandleCreate adds a game for the caller. An empty body is allowed and
// creates a game at score 0, level 0.
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated("Authentication required"))
		return
	}

	var req createGameRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, h.logger, err)
		return
	}

	game, games, err := h.games.Create(r.Context(), accountID, model.GameUpdate{
		Score: req.Score.intPtr(),
		Level: req.Level.intPtr(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, createGameResponse{
		Message: "Game created successfully",
		GameID:  game.ID,
		Game:    game,
		Games:   games,
	})
}

// HandleList returns the caller's games, newest first.
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated("Authentication required"))
		return
	}

	games, err := h.games.List(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listGamesResponse{
		UserID:     accountID,
		TotalGames: len(games),
		Games:      games,
	})
}

// HandleUpdate changes score and/or level of one of the caller's games.
//
// A missing gameId (including an empty body), an unknown one and someone
// else's all get the same 403.
func (h *GameHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated("Authentication required"))
		return
	}

	var req updateGameRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, h.logger, err)
		return
	}

	var gameID int64
	if req.GameID != nil {
		gameID = int64(*req.GameID)
	}

	game, err := h.games.Update(r.Context(), accountID, gameID, model.GameUpdate{
		Score: req.Score.intPtr(),
		Level: req.Level.intPtr(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, updateGameResponse{
		Message: "Game updated",
		Game:    game,
	})
}
