package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/varejo/backend/internal/infrastructure/config"
	"github.com/varejo/backend/internal/infrastructure/logger"
	"github.com/varejo/backend/internal/interfaces/http/handler"
	"github.com/varejo/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	System      *handler.SystemHandler
	Installment *handler.InstallmentHandler
	Dunning     *handler.DunningHandler
}

// New builds the gin engine with the full middleware chain and all routes
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.CORS(),
	)

	if cfg.HTTP.RatePerSecond > 0 && cfg.HTTP.RateBurst > 0 {
		// A burst-sized window sized so the sustained rate works out to
		// rate_per_second.
		window := time.Duration(cfg.HTTP.RateBurst) * time.Second / time.Duration(cfg.HTTP.RatePerSecond)
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateBurst, window)))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	api := engine.Group("/api/v1")
	{
		api.GET("/system/info", h.System.GetSystemInfo)

		installments := api.Group("/installments")
		{
			installments.POST("", h.Installment.Create)
			installments.GET("", h.Installment.List)
			installments.GET("/stats", h.Installment.Stats)
			installments.GET("/:id", h.Installment.Get)
			installments.DELETE("/:id", h.Installment.Delete)
			installments.POST("/:id/payments", h.Installment.Pay)
			installments.GET("/:id/payments", h.Installment.ListPayments)
		}

		customers := api.Group("/customers")
		{
			customers.POST("/:id/payments", h.Installment.PayBulk)
			customers.GET("/:id/debt-summary", h.Installment.DebtSummary)
		}

		dunning := api.Group("/dunning")
		{
			dunning.POST("/run", h.Dunning.TriggerRun)
			dunning.GET("/status", h.Dunning.Status)
			dunning.POST("/test-message", h.Dunning.SendTestMessage)
		}
	}

	return engine
}
