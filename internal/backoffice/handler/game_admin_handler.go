package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/repository"
	"github.com/betwise-ng/betwise/internal/service"
)

// GameAdminHandler serves /admin/games endpoints.
type GameAdminHandler struct {
	gameSvc       *service.GameService
	settlementSvc *service.SettlementService
	betRepo       *repository.BetRepository
	cfg           *config.Config
}

// NewGameAdminHandler creates a GameAdminHandler.
func NewGameAdminHandler(
	gameSvc *service.GameService,
	settlementSvc *service.SettlementService,
	betRepo *repository.BetRepository,
	cfg *config.Config,
) *GameAdminHandler {
	return &GameAdminHandler{
		gameSvc:       gameSvc,
		settlementSvc: settlementSvc,
		betRepo:       betRepo,
		cfg:           cfg,
	}
}

// List godoc
// GET /admin/games?status=upcoming&page=1&limit=50
func (h *GameAdminHandler) List(c *gin.Context) {
	status := domain.GameStatus(c.Query("status"))
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	games, err := h.gameSvc.ListGames(c.Request.Context(), status, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGameStatus) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_STATUS", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondList(c, games, len(games), page, limit)
}

// Detail godoc
// GET /admin/games/:id
func (h *GameAdminHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid game id")
		return
	}

	ctx := c.Request.Context()
	game, err := h.gameSvc.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}

	pendingBets, _ := h.betRepo.GetPendingByGame(ctx, id)
	history, _ := h.gameSvc.GetOddsHistory(ctx, id)

	var pendingStake decimal.Decimal
	for _, b := range pendingBets {
		pendingStake = pendingStake.Add(b.Stake)
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"game":          game,
		"pending_bets":  pendingBets,
		"pending_stake": pendingStake,
		"odds_history":  history,
	})
}

// Upsert godoc
// POST /admin/games
// Body: {"id":"uuid (optional)","home_team":"...","away_team":"...",
//
//	"league":"...","odds":{"home":"2.10","away":"3.40","draw":"3.00"},
//	"starts_at":"2026-09-05T15:00:00Z"}
func (h *GameAdminHandler) Upsert(c *gin.Context) {
	var body struct {
		ID       string    `json:"id"`
		HomeTeam string    `json:"home_team"`
		AwayTeam string    `json:"away_team"`
		League   string    `json:"league"`
		StartsAt time.Time `json:"starts_at"`
		Odds     struct {
			Home string `json:"home" binding:"required"`
			Away string `json:"away" binding:"required"`
			Draw string `json:"draw" binding:"required"`
		} `json:"odds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	odds, err := parseOdds(body.Odds.Home, body.Odds.Away, body.Odds.Draw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ODDS", "odds must be decimal strings")
		return
	}

	req := domain.UpsertGameRequest{
		HomeTeam: body.HomeTeam,
		AwayTeam: body.AwayTeam,
		League:   body.League,
		Odds:     odds,
		StartsAt: body.StartsAt,
	}
	if body.ID != "" {
		id, err := uuid.Parse(body.ID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid game id")
			return
		}
		req.ID = &id
	}

	game, err := h.gameSvc.UpsertGame(c.Request.Context(), req)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		case errors.Is(err, domain.ErrGameNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrGameNotBettable):
			respondError(c, http.StatusConflict, "ERR_GAME_CLOSED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		}
		return
	}
	status := http.StatusOK
	if body.ID == "" {
		status = http.StatusCreated
	}
	respondSuccess(c, status, game)
}

// SetResult godoc
// POST /admin/games/:id/result
// Body: {"result": "home"}
func (h *GameAdminHandler) SetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid game id")
		return
	}
	var body struct {
		Result string `json:"result" binding:"required"`
	}
	if err = c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	result := domain.Outcome(body.Result)
	if !result.IsValid() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_RESULT", "result must be home, away or draw")
		return
	}

	if err = h.settlementSvc.SetResult(c.Request.Context(), id, result); err != nil {
		respondGameTransitionError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"game_id": id, "result": result, "status": "finished"})
}

// Cancel godoc
// POST /admin/games/:id/cancel
func (h *GameAdminHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid game id")
		return
	}
	if err = h.settlementSvc.CancelGame(c.Request.Context(), id); err != nil {
		respondGameTransitionError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"game_id": id, "status": "cancelled"})
}

// Sweep godoc
// POST /admin/games/sweep
// Forces an immediate settlement pass over finished games with pending bets.
func (h *GameAdminHandler) Sweep(c *gin.Context) {
	if err := h.settlementSvc.SweepUnsettled(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "sweep completed"})
}

// ── helpers ───────────────────────────────────────────────────────────────────

func parseOdds(home, away, draw string) (domain.Odds, error) {
	var odds domain.Odds
	var err error
	if odds.Home, err = decimal.NewFromString(home); err != nil {
		return odds, err
	}
	if odds.Away, err = decimal.NewFromString(away); err != nil {
		return odds, err
	}
	odds.Draw, err = decimal.NewFromString(draw)
	return odds, err
}

func respondGameTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrGameAlreadyFinished):
		respondError(c, http.StatusConflict, "ERR_ALREADY_FINISHED", err.Error())
	case errors.Is(err, domain.ErrGameAlreadyCancelled):
		respondError(c, http.StatusConflict, "ERR_ALREADY_CANCELLED", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
	}
}
