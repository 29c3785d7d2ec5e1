package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/handler"
	"github.com/stemsi/exstem-drill/internal/middleware"
	"github.com/stemsi/exstem-drill/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Bank       *handler.BankHandler
	Practice   *handler.PracticeHandler
	Session    *handler.SessionHandler
	Preference *handler.PreferenceHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Bank payloads are large JSON.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// ─── 1. Banks ──────────────────────────────────────────────────────
	banks := api.Group("/banks")
	{
		banks.GET("", handlers.Bank.ListBanks)
		banks.POST("/upload", handlers.Bank.UploadBank)
		banks.GET("/:name", middleware.CacheControl(0), handlers.Bank.GetBank)
		banks.DELETE("/:name", handlers.Bank.DeleteBank)
		banks.GET("/:name/questions/:id", handlers.Bank.GetQuestion)

		banks.GET("/:name/practice", middleware.NoStore(), handlers.Practice.GetStats)
		banks.DELETE("/:name/practice", handlers.Practice.ClearHistory)
	}

	// ─── 2. Sessions ───────────────────────────────────────────────────
	// The translation route calls an external service, so it is rate limited per IP.
	translateLimiter := middleware.NewRateLimiter(max(cfg.TranslateRatePerMinute, 1), time.Minute)

	sessions := api.Group("/sessions")
	sessions.Use(middleware.NoStore())
	{
		sessions.POST("", handlers.Session.StartSession)
		sessions.GET("/:id", handlers.Session.GetSession)
		sessions.DELETE("/:id", handlers.Session.Discard)
		sessions.POST("/:id/select", handlers.Session.SelectOption)
		sessions.POST("/:id/submit", handlers.Session.Submit)
		sessions.POST("/:id/previous", handlers.Session.Previous)
		sessions.POST("/:id/next", handlers.Session.Next)
		sessions.POST("/:id/end", handlers.Session.End)
		sessions.POST("/:id/restart", handlers.Session.Restart)
		sessions.GET("/:id/result", handlers.Session.GetResult)
		sessions.GET("/:id/review", handlers.Session.GetReview)
		sessions.GET("/:id/translation", translateLimiter.Middleware(), handlers.Session.Translate)
	}

	// ─── 3. Preferences ────────────────────────────────────────────────
	api.GET("/preferences", handlers.Preference.GetPreferences)
	api.PUT("/preferences", handlers.Preference.UpdatePreferences)

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
