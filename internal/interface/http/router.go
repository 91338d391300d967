package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/appliance-assistant/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = handler.maxUpload + 1<<20
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/sessions", handler.CreateSession)
		api.GET("/technicians", handler.Technicians)
		api.GET("/parts", handler.Parts)
		api.GET("/parts/images/*path", handler.PartImage)
		api.GET("/bookings/:id", bookingAuthMiddleware(handler.tokens), handler.Booking)
	}

	admin := api.Group("/admin")
	admin.Use(adminAuthMiddleware(cfg.HTTP.AdminToken))
	{
		admin.POST("/cache/clear", handler.ClearCache)
	}

	sessions := api.Group("/sessions/:id")
	sessions.Use(sessionAuthMiddleware(handler.tokens))
	{
		sessions.GET("", handler.GetSession)
		sessions.POST("/events", handler.ApplyEvent)
		sessions.POST("/nameplate", handler.UploadNameplate)
		sessions.GET("/images/:hash", handler.SessionImage)
		sessions.POST("/reset", handler.ResetSession)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
