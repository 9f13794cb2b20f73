package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/repository"
	"github.com/betwise-ng/betwise/internal/service"
	"github.com/betwise-ng/betwise/internal/ws"
)

// DashboardHandler serves the /admin/dashboard endpoint.
type DashboardHandler struct {
	gameSvc     *service.GameService
	exposureSvc *service.ExposureService
	accountRepo *repository.AccountRepository
	betRepo     *repository.BetRepository
	hub         *ws.Hub
	cfg         *config.Config
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(
	gameSvc *service.GameService,
	exposureSvc *service.ExposureService,
	accountRepo *repository.AccountRepository,
	betRepo *repository.BetRepository,
	hub *ws.Hub,
	cfg *config.Config,
) *DashboardHandler {
	return &DashboardHandler{
		gameSvc:     gameSvc,
		exposureSvc: exposureSvc,
		accountRepo: accountRepo,
		betRepo:     betRepo,
		hub:         hub,
		cfg:         cfg,
	}
}

// Dashboard godoc
// GET /admin/dashboard
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	// ── Board (upcoming and live fixtures) ───────────────────────────────────
	upcoming, _ := h.gameSvc.ListGames(ctx, domain.GameStatusUpcoming, 10, 0)
	live, _ := h.gameSvc.ListGames(ctx, domain.GameStatusLive, 10, 0)

	// ── Bet and payout totals ────────────────────────────────────────────────
	var totals *repository.FinanceTotals
	totals, _ = h.betRepo.GetFinanceTotals(ctx, time.Time{}, time.Time{})

	// ── Exposure headline ────────────────────────────────────────────────────
	var worstCase, pendingStake decimal.Decimal
	var riskiest gin.H
	if report, err := h.exposureSvc.Latest(ctx); err == nil {
		worstCase = report.TotalWorstCase
		pendingStake = report.TotalStake
		if len(report.Games) > 0 {
			top := report.Games[0]
			riskiest = gin.H{
				"game_id":    top.GameID,
				"fixture":    top.HomeTeam + " vs " + top.AwayTeam,
				"worst_case": top.WorstCase,
			}
		}
	}

	// ── Accounts ─────────────────────────────────────────────────────────────
	accountCount, _ := h.accountRepo.Count(ctx)

	// ── Pending withdrawals ──────────────────────────────────────────────────
	pending, _ := h.accountRepo.GetWithdrawRequests(ctx, "pending", 1000, 0)
	var pendingWithdrawTotal decimal.Decimal
	for _, p := range pending {
		pendingWithdrawTotal = pendingWithdrawTotal.Add(p.Amount)
	}

	// ── WS connections ───────────────────────────────────────────────────────
	var wsConnections int
	if h.hub != nil {
		wsConnections = h.hub.ConnectedCount()
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"timestamp":       time.Now().UTC(),
		"upcoming_games":  upcoming,
		"live_games":      live,
		"bet_totals":      totals,
		"total_accounts":  accountCount,
		"exposure":        gin.H{"worst_case": worstCase, "pending_stake": pendingStake},
		"riskiest_game":   riskiest,
		"alert_threshold": h.cfg.Risk.AlertThreshold,
		"pending_withdrawals": gin.H{
			"count": len(pending),
			"total": pendingWithdrawTotal,
		},
		"ws_connections": wsConnections,
	})
}
