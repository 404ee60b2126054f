package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aduba/internal/infra/config"
	"github.com/yanqian/aduba/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, reg *metrics.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		metricsMiddleware(reg),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)
	if cfg.Metrics.Enabled && reg != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(reg.Handler()))
	}

	legacy := router.Group("/api")
	{
		legacy.POST("/signup", handler.SignUp)
		legacy.POST("/signin", handler.Login)
	}

	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/refresh", handler.Refresh)
	}

	secured := api.Group("")
	secured.Use(authMiddleware(handler.authSvc))
	{
		secured.POST("/auth/logout", handler.Logout)
		secured.GET("/auth/me", handler.Me)

		secured.GET("/readings", handler.ListReadings)
		secured.POST("/readings", handler.RecordReading)
		secured.GET("/readings/latest", handler.LatestReading)
		secured.GET("/readings/stats", handler.ReadingStats)
		secured.GET("/readings/export", handler.ExportReadings)

		secured.GET("/settings", handler.GetSettings)
		secured.PUT("/settings", handler.UpdateSettings)

		secured.GET("/events", handler.ListEvents)
		secured.POST("/events", handler.CreateEvent)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
