package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/service"
)

// RiskHandler serves /admin/risk endpoints.
type RiskHandler struct {
	exposureSvc *service.ExposureService
	cfg         *config.Config
}

// NewRiskHandler creates a RiskHandler.
func NewRiskHandler(exposureSvc *service.ExposureService, cfg *config.Config) *RiskHandler {
	return &RiskHandler{exposureSvc: exposureSvc, cfg: cfg}
}

// Exposure godoc
// GET /admin/risk/exposure
// Returns the most recent exposure snapshot (cached, no recompute).
func (h *RiskHandler) Exposure(c *gin.Context) {
	report, err := h.exposureSvc.Latest(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, report)
}

// Refresh godoc
// POST /admin/risk/exposure/refresh
// Forces a fresh exposure recompute ahead of the scheduled snapshot.
func (h *RiskHandler) Refresh(c *gin.Context) {
	report, err := h.exposureSvc.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, report)
}

// Alerts godoc
// GET /admin/risk/alerts
// Lists games whose worst-case liability exceeds the configured threshold.
func (h *RiskHandler) Alerts(c *gin.Context) {
	report, err := h.exposureSvc.Latest(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}

	type Alert struct {
		Level     string          `json:"level"`
		GameID    string          `json:"game_id"`
		Fixture   string          `json:"fixture"`
		WorstCase decimal.Decimal `json:"worst_case"`
	}
	threshold := decimal.NewFromFloat(h.cfg.Risk.AlertThreshold)
	redLine := threshold.Mul(decimal.NewFromInt(2))

	alerts := []Alert{}
	for _, g := range report.Games {
		if g.WorstCase.LessThan(threshold) {
			continue
		}
		level := "YELLOW"
		if g.WorstCase.GreaterThanOrEqual(redLine) {
			level = "RED"
		}
		alerts = append(alerts, Alert{
			Level:     level,
			GameID:    g.GameID.String(),
			Fixture:   g.HomeTeam + " vs " + g.AwayTeam,
			WorstCase: g.WorstCase,
		})
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"alerts":       alerts,
		"generated_at": report.GeneratedAt,
		"threshold":    threshold,
	})
}
