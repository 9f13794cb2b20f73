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

// AccountAdminHandler serves /admin/accounts endpoints.
type AccountAdminHandler struct {
	accountRepo *repository.AccountRepository
	walletSvc   *service.WalletService
	cfg         *config.Config
}

// NewAccountAdminHandler creates an AccountAdminHandler.
func NewAccountAdminHandler(
	accountRepo *repository.AccountRepository,
	walletSvc *service.WalletService,
	cfg *config.Config,
) *AccountAdminHandler {
	return &AccountAdminHandler{accountRepo: accountRepo, walletSvc: walletSvc, cfg: cfg}
}

// List godoc
// GET /admin/accounts?page=1&limit=50
func (h *AccountAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	ctx := c.Request.Context()
	accounts, err := h.accountRepo.List(ctx, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	total, _ := h.accountRepo.Count(ctx)
	respondList(c, accounts, total, page, limit)
}

// Detail godoc
// GET /admin/accounts/:id
func (h *AccountAdminHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid account id")
		return
	}

	ctx := c.Request.Context()
	account, err := h.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}

	ledger, _ := h.accountRepo.GetLedgerEntries(ctx, id, "", 50, 0)
	summary, _ := h.accountRepo.GetLedgerSummary(ctx, id)

	respondSuccess(c, http.StatusOK, gin.H{
		"account": account,
		"ledger":  ledger,
		"summary": summary,
	})
}

// Create godoc
// POST /admin/accounts
// Body: {"email":"a@b.ng","username":"chidi"}
func (h *AccountAdminHandler) Create(c *gin.Context) {
	var body struct {
		Email    string `json:"email"    binding:"required,email"`
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.New(),
		Email:     body.Email,
		Username:  body.Username,
		Balance:   decimal.Zero,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.accountRepo.Create(c.Request.Context(), account); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusCreated, account)
}

// Suspend godoc
// POST /admin/accounts/:id/suspend
func (h *AccountAdminHandler) Suspend(c *gin.Context) {
	h.setActive(c, false)
}

// Activate godoc
// POST /admin/accounts/:id/activate
func (h *AccountAdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *AccountAdminHandler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid account id")
		return
	}
	if err = h.accountRepo.SetActive(c.Request.Context(), id, active); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account_id": id, "is_active": active})
}

// AdjustBalance godoc
// POST /admin/accounts/:id/balance
// Body: {"amount": "500", "description": "goodwill credit"}
func (h *AccountAdminHandler) AdjustBalance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid account id")
		return
	}
	var body struct {
		Amount      string `json:"amount"      binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err = c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	entry, err := h.walletSvc.AdminAdjust(c.Request.Context(), id, amount, body.Description)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		case errors.Is(err, domain.ErrInsufficientFunds):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_FUNDS", err.Error())
		case errors.Is(err, domain.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		}
		return
	}
	respondSuccess(c, http.StatusOK, entry)
}

// SetLimits godoc
// POST /admin/accounts/:id/limits
// Body: {"max_weekly_bets": 50, "max_weekly_stake": "10000"}
func (h *AccountAdminHandler) SetLimits(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid account id")
		return
	}
	var body struct {
		MaxWeeklyBets  int    `json:"max_weekly_bets"`
		MaxWeeklyStake string `json:"max_weekly_stake"`
	}
	if err = c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	maxStake := decimal.Zero
	if body.MaxWeeklyStake != "" {
		maxStake, err = decimal.NewFromString(body.MaxWeeklyStake)
		if err != nil || maxStake.IsNegative() {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "max_weekly_stake must be a non-negative decimal")
			return
		}
	}
	if body.MaxWeeklyBets < 0 {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "max_weekly_bets must be non-negative")
		return
	}

	if err = h.accountRepo.SetLimits(c.Request.Context(), id, body.MaxWeeklyBets, maxStake); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"account_id":       id,
		"max_weekly_bets":  body.MaxWeeklyBets,
		"max_weekly_stake": maxStake,
	})
}

// Reconcile godoc
// POST /admin/accounts/:id/reconcile
// Replays the full ledger and compares it with the cached balance.
func (h *AccountAdminHandler) Reconcile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid account id")
		return
	}

	replayed, err := h.walletSvc.Reconcile(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLedgerMismatch):
			respondError(c, http.StatusConflict, "ERR_LEDGER_MISMATCH", err.Error())
		case errors.Is(err, domain.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account_id": id, "balance": replayed, "status": "consistent"})
}
