package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/betwise-ng/betwise/internal/backoffice/handler"
	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/repository"
	"github.com/betwise-ng/betwise/internal/service"
	"github.com/betwise-ng/betwise/internal/ws"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	GameSvc       *service.GameService
	SettlementSvc *service.SettlementService
	WalletSvc     *service.WalletService
	ExposureSvc   *service.ExposureService
	AccountRepo   *repository.AccountRepository
	BetRepo       *repository.BetRepository
	Hub           *ws.Hub
	Cfg           *config.Config
}

// SetupBackofficeRouter creates the admin Gin engine on port 8081.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	// Prometheus scrape endpoint; protected by the IP allowlist only.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	dashH := handler.NewDashboardHandler(deps.GameSvc, deps.ExposureSvc, deps.AccountRepo, deps.BetRepo, deps.Hub, deps.Cfg)
	gameH := handler.NewGameAdminHandler(deps.GameSvc, deps.SettlementSvc, deps.BetRepo, deps.Cfg)
	accountH := handler.NewAccountAdminHandler(deps.AccountRepo, deps.WalletSvc, deps.Cfg)
	riskH := handler.NewRiskHandler(deps.ExposureSvc, deps.Cfg)
	financeH := handler.NewFinanceHandler(deps.WalletSvc, deps.BetRepo, deps.Cfg)

	admin := r.Group("/admin")
	admin.Use(adminIdentityMiddleware())
	{
		admin.GET("/dashboard", dashH.Dashboard)

		// Games
		g := admin.Group("/games")
		{
			g.GET("", gameH.List)
			g.POST("", gameH.Upsert)
			g.GET("/:id", gameH.Detail)
			g.POST("/:id/result", gameH.SetResult)
			g.POST("/:id/cancel", gameH.Cancel)
			g.POST("/sweep", gameH.Sweep)
		}

		// Accounts
		a := admin.Group("/accounts")
		{
			a.GET("", accountH.List)
			a.POST("", accountH.Create)
			a.GET("/:id", accountH.Detail)
			a.POST("/:id/suspend", accountH.Suspend)
			a.POST("/:id/activate", accountH.Activate)
			a.POST("/:id/balance", accountH.AdjustBalance)
			a.POST("/:id/limits", accountH.SetLimits)
			a.POST("/:id/reconcile", accountH.Reconcile)
		}

		// Risk
		risk := admin.Group("/risk")
		{
			risk.GET("/exposure", riskH.Exposure)
			risk.POST("/exposure/refresh", riskH.Refresh)
			risk.GET("/alerts", riskH.Alerts)
		}

		// Finance
		fin := admin.Group("/finance")
		{
			fin.GET("/withdrawals", financeH.Withdrawals)
			fin.POST("/withdrawals/:id/approve", financeH.ApproveWithdrawal)
			fin.POST("/withdrawals/:id/reject", financeH.RejectWithdrawal)
			fin.GET("/report", financeH.Report)
		}
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !allowed[clientIP] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin identity middleware ─────────────────────────────────────────────────

// adminIdentityMiddleware resolves the operator's account id from the
// X-Account-ID header.  Operator authentication and role checks happen in
// the upstream gateway; the id forwarded here is recorded as the reviewer
// on withdrawal decisions.
func adminIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Account-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Account-ID header"})
			return
		}
		adminID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed X-Account-ID header"})
			return
		}
		c.Set("adminID", adminID)
		c.Next()
	}
}
