package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/api/middleware"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/service"
)

// BetHandler serves bet placement and history endpoints.
type BetHandler struct {
	admissionSvc *service.AdmissionService
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(admissionSvc *service.AdmissionService) *BetHandler {
	return &BetHandler{admissionSvc: admissionSvc}
}

// PlaceBet godoc
// POST /api/bets
// Body: {"type":"multi","stake":"150.00","confirmed":false,
//
//	"selections":[{"game_id":"uuid","outcome":"home"}, ...]}
func (h *BetHandler) PlaceBet(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var body struct {
		Type       string `json:"type"  binding:"required"`
		Stake      string `json:"stake" binding:"required"`
		Confirmed  bool   `json:"confirmed"`
		Selections []struct {
			GameID  string `json:"game_id" binding:"required"`
			Outcome string `json:"outcome" binding:"required"`
		} `json:"selections" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	stake, err := decimal.NewFromString(body.Stake)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_STAKE", "stake must be a decimal string")
		return
	}

	selections := make([]domain.Selection, len(body.Selections))
	for i, sel := range body.Selections {
		gameID, err := uuid.Parse(sel.GameID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_GAME_ID", "invalid game_id format")
			return
		}
		selections[i] = domain.Selection{
			GameID:  gameID,
			Outcome: domain.Outcome(sel.Outcome),
		}
	}

	req := domain.PlaceBetRequest{
		AccountID:  accountID,
		Type:       domain.BetType(body.Type),
		Stake:      stake,
		Selections: selections,
		Confirmed:  body.Confirmed,
	}

	bet, err := h.admissionSvc.PlaceBet(c.Request.Context(), req)
	if err != nil {
		respondBetError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, bet.ToResponse())
}

// respondBetError maps admission errors onto HTTP responses.
func respondBetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidStake):
		respondError(c, http.StatusBadRequest, "ERR_INVALID_STAKE", err.Error())
	case errors.Is(err, domain.ErrInvalidLegSet):
		respondError(c, http.StatusBadRequest, "ERR_INVALID_SELECTIONS", err.Error())
	case errors.Is(err, domain.ErrOddsUnavailable):
		respondError(c, http.StatusBadRequest, "ERR_ODDS_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrGameNotBettable):
		respondError(c, http.StatusConflict, "ERR_BETTING_CLOSED", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, domain.ErrLimitExceeded):
		respondError(c, http.StatusForbidden, "ERR_LIMIT_EXCEEDED", err.Error())
	case errors.Is(err, domain.ErrRequiresConfirmation):
		respondError(c, http.StatusPreconditionRequired, "ERR_CONFIRMATION_REQUIRED",
			"resubmit with confirmed=true to place this stake")
	case errors.Is(err, domain.ErrAccountInactive):
		respondError(c, http.StatusForbidden, "ERR_ACCOUNT_INACTIVE", err.Error())
	case errors.Is(err, domain.ErrGameNotFound):
		respondError(c, http.StatusNotFound, "ERR_GAME_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		respondError(c, http.StatusNotFound, "ERR_ACCOUNT_NOT_FOUND", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bet")
	}
}

// GetMyBets godoc
// GET /api/bets/my?status=pending&page=1&limit=20
func (h *BetHandler) GetMyBets(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit
	status := domain.BetStatus(c.Query("status"))

	bets, err := h.admissionSvc.ListBets(c.Request.Context(), accountID, status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bets")
		return
	}
	out := make([]domain.BetResponse, len(bets))
	for i, b := range bets {
		out[i] = b.ToResponse()
	}
	respondList(c, out, len(out), page, limit)
}

// GetBetByID godoc
// GET /api/bets/:id
func (h *BetHandler) GetBetByID(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BET_ID", "invalid bet id")
		return
	}

	bet, err := h.admissionSvc.GetBet(c.Request.Context(), accountID, betID)
	if err != nil {
		if errors.Is(err, domain.ErrBetNotFound) {
			respondError(c, http.StatusNotFound, "ERR_BET_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bet")
		return
	}
	respondSuccess(c, http.StatusOK, bet.ToResponse())
}
