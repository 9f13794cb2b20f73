package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/repository"
	"github.com/betwise-ng/betwise/internal/service"
)

// FinanceHandler serves /admin/finance endpoints.
type FinanceHandler struct {
	walletSvc *service.WalletService
	betRepo   *repository.BetRepository
	cfg       *config.Config
}

// NewFinanceHandler creates a FinanceHandler.
func NewFinanceHandler(
	walletSvc *service.WalletService,
	betRepo *repository.BetRepository,
	cfg *config.Config,
) *FinanceHandler {
	return &FinanceHandler{walletSvc: walletSvc, betRepo: betRepo, cfg: cfg}
}

// Withdrawals godoc
// GET /admin/finance/withdrawals?status=pending&page=1&limit=50
func (h *FinanceHandler) Withdrawals(c *gin.Context) {
	status := c.DefaultQuery("status", "")
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	reqs, err := h.walletSvc.ListWithdrawRequests(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondList(c, reqs, len(reqs), page, limit)
}

// ApproveWithdrawal godoc
// POST /admin/finance/withdrawals/:id/approve
func (h *FinanceHandler) ApproveWithdrawal(c *gin.Context) {
	h.review(c, true)
}

// RejectWithdrawal godoc
// POST /admin/finance/withdrawals/:id/reject
// Body: {"note": "reason"}
func (h *FinanceHandler) RejectWithdrawal(c *gin.Context) {
	h.review(c, false)
}

func (h *FinanceHandler) review(c *gin.Context, approve bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid withdrawal id")
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&body) // note is optional

	req, err := h.walletSvc.ReviewWithdraw(c.Request.Context(), id, adminAccountID(c), approve, body.Note)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWithdrawNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrWithdrawNotPending):
			respondError(c, http.StatusConflict, "ERR_ALREADY_REVIEWED", err.Error())
		case errors.Is(err, domain.ErrInsufficientFunds):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_FUNDS", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		}
		return
	}
	respondSuccess(c, http.StatusOK, req)
}

// Report godoc
// GET /admin/finance/report?from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z
// Both bounds are optional RFC 3339 timestamps; omitting both reports
// lifetime totals.
func (h *FinanceHandler) Report(c *gin.Context) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_RANGE", "from must be an RFC 3339 timestamp")
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_RANGE", "to must be an RFC 3339 timestamp")
			return
		}
		to = t
	}

	totals, err := h.betRepo.GetFinanceTotals(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}

	margin := totals.TotalStaked.Sub(totals.TotalPayout)
	respondSuccess(c, http.StatusOK, gin.H{
		"totals":       totals,
		"gross_margin": margin,
	})
}

// ── helper ────────────────────────────────────────────────────────────────────

// adminAccountID extracts the reviewer's UUID from the gin context
// (set by the backoffice identity middleware).
func adminAccountID(c *gin.Context) uuid.UUID {
	v, _ := c.Get("adminID")
	id, _ := v.(uuid.UUID)
	return id
}
