package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betwise-ng/betwise/internal/api/handler"
	"github.com/betwise-ng/betwise/internal/api/middleware"
	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/service"
	"github.com/betwise-ng/betwise/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AdmissionSvc *service.AdmissionService
	WalletSvc    *service.WalletService
	GameSvc      *service.GameService
	Hub          *ws.Hub
	Cfg          *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	gameH := handler.NewGameHandler(deps.GameSvc)
	betH := handler.NewBetHandler(deps.AdmissionSvc)
	walletH := handler.NewWalletHandler(deps.WalletSvc)

	// ── Identity middleware (shared) ─────────────────────────────────────────
	identityMW := middleware.IdentityMiddleware()

	// ── Rate limiters ─────────────────────────────────────────────────────────
	betRL := middleware.RateLimitMiddleware(30)    // 30 req/s per account for bet endpoints
	walletRL := middleware.RateLimitMiddleware(10) // 10 req/s per account for money movement

	api := r.Group("/api")
	{
		// ── Games (public) ───────────────────────────────────────────────────
		games := api.Group("/games")
		{
			games.GET("", gameH.ListGames)
			games.GET("/:id", gameH.GetGame)
			games.GET("/:id/odds-history", gameH.GetOddsHistory)
		}

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(identityMW)
		{
			// Bets
			bets := authed.Group("/bets")
			bets.Use(betRL)
			{
				bets.POST("", betH.PlaceBet)
				bets.GET("/my", betH.GetMyBets)
				bets.GET("/:id", betH.GetBetByID)
			}

			// Wallet
			wallet := authed.Group("/wallet")
			{
				wallet.GET("", walletH.GetBalance)
				wallet.GET("/ledger", walletH.GetLedger)
				wallet.GET("/summary", walletH.GetSummary)
				wallet.POST("/topup", walletRL, walletH.TopUp)
				wallet.POST("/withdrawals", walletRL, walletH.RequestWithdraw)
				wallet.GET("/withdrawals/:id", walletH.GetWithdraw)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In DEBUG mode all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			// Production: allow only betwise.ng (and www.)
			allowed := map[string]bool{
				"https://betwise.ng":     true,
				"https://www.betwise.ng": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "X-Account-ID, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
