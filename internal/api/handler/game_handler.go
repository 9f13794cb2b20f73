package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/service"
)

// GameHandler serves the public fixture and odds endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// ListGames godoc
// GET /api/games?status=upcoming&page=1&limit=20
func (h *GameHandler) ListGames(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit
	status := domain.GameStatus(c.Query("status"))

	games, err := h.gameSvc.ListGames(c.Request.Context(), status, limit, offset)
	if err != nil {
		if domain.IsValidation(err) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_STATUS", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch games")
		return
	}
	respondList(c, games, len(games), page, limit)
}

// GetGame godoc
// GET /api/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_GAME_ID", "invalid game id")
		return
	}

	game, err := h.gameSvc.GetGame(c.Request.Context(), gameID)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			respondError(c, http.StatusNotFound, "ERR_GAME_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch game")
		return
	}
	respondSuccess(c, http.StatusOK, game)
}

// GetOddsHistory godoc
// GET /api/games/:id/odds-history
func (h *GameHandler) GetOddsHistory(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_GAME_ID", "invalid game id")
		return
	}

	history, err := h.gameSvc.GetOddsHistory(c.Request.Context(), gameID)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			respondError(c, http.StatusNotFound, "ERR_GAME_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch odds history")
		return
	}
	respondSuccess(c, http.StatusOK, history)
}
