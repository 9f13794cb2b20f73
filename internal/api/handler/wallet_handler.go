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

// WalletHandler serves balance, ledger and money-movement endpoints.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance godoc
// GET /api/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	account, err := h.walletSvc.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			respondError(c, http.StatusNotFound, "ERR_ACCOUNT_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch account")
		return
	}
	respondSuccess(c, http.StatusOK, account)
}

// GetLedger godoc
// GET /api/wallet/ledger?kind=bet&page=1&limit=20
func (h *WalletHandler) GetLedger(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit
	kind := domain.EntryKind(c.Query("kind"))

	entries, err := h.walletSvc.GetLedger(c.Request.Context(), accountID, kind, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidEntryKind) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_KIND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch ledger")
		return
	}
	respondList(c, entries, len(entries), page, limit)
}

// GetSummary godoc
// GET /api/wallet/summary
func (h *WalletHandler) GetSummary(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	totals, err := h.walletSvc.GetSummary(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch summary")
		return
	}

	// Entry amounts are signed, so summing the gambling kinds gives the
	// account's lifetime win/loss figure directly.
	net := decimal.Zero
	for _, t := range totals {
		switch t.Kind {
		case domain.EntryBet, domain.EntryWin, domain.EntryRefund:
			net = net.Add(t.Total)
		}
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"by_kind":    totals,
		"net_result": net,
	})
}

// TopUp godoc
// POST /api/wallet/topup
// Body: {"amount":"500.00","reference":"psp-tx-9f2c"}
func (h *WalletHandler) TopUp(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var body struct {
		Amount    string `json:"amount" binding:"required"`
		Reference string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	entry, err := h.walletSvc.TopUp(c.Request.Context(), accountID, amount, body.Reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
		case errors.Is(err, domain.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "ERR_ACCOUNT_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrAccountInactive):
			respondError(c, http.StatusForbidden, "ERR_ACCOUNT_INACTIVE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not process top-up")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, entry)
}

// RequestWithdraw godoc
// POST /api/wallet/withdrawals
// Body: {"amount":"200.00","note":"to bank"}
func (h *WalletHandler) RequestWithdraw(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var body struct {
		Amount string `json:"amount" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	req, err := h.walletSvc.RequestWithdraw(c.Request.Context(), accountID, amount, body.Note)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
		case errors.Is(err, domain.ErrInsufficientFunds):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_FUNDS", err.Error())
		case errors.Is(err, domain.ErrWithdrawPending):
			respondError(c, http.StatusConflict, "ERR_WITHDRAW_PENDING", err.Error())
		case errors.Is(err, domain.ErrWithdrawLimitExceeded):
			respondError(c, http.StatusForbidden, "ERR_WITHDRAW_LIMIT", err.Error())
		case errors.Is(err, domain.ErrAccountInactive):
			respondError(c, http.StatusForbidden, "ERR_ACCOUNT_INACTIVE", err.Error())
		case errors.Is(err, domain.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "ERR_ACCOUNT_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not request withdrawal")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, req)
}

// GetWithdraw godoc
// GET /api/wallet/withdrawals/:id
func (h *WalletHandler) GetWithdraw(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_REQUEST_ID", "invalid withdrawal id")
		return
	}

	req, err := h.walletSvc.GetWithdraw(c.Request.Context(), accountID, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrWithdrawNotFound) {
			respondError(c, http.StatusNotFound, "ERR_WITHDRAW_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch withdrawal")
		return
	}
	respondSuccess(c, http.StatusOK, req)
}
