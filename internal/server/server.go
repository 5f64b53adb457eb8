package server

import (
	"net/http"

	"leadbook/internal/caching"
	"leadbook/internal/config"
	"leadbook/internal/handlers"
	"leadbook/internal/logging"
	"leadbook/internal/middleware"
	"leadbook/internal/repositories"
	"leadbook/internal/services"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const Version = "1.0.0"

// New wires services and handlers over the given store and cache and
// returns a ready-to-start echo instance.
func New(cfg *config.Config, logger *zap.Logger, store *repositories.Store, cacheSvc caching.CacheService) *echo.Echo {
	sessionSvc := services.NewSessionService(services.SessionConfig{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.SessionTTL,
		CookieName: cfg.CookieName,
	}, cacheSvc, logger)
	authSvc := services.NewAuthService(store.Users, sessionSvc, cfg.BcryptCost, logger)
	leadSvc := services.NewLeadService(store.Leads, middleware.LeadMetrics{})

	authHandlers := handlers.NewAuthHandlers(authSvc, sessionSvc)
	leadHandlers := handlers.NewLeadHandlers(leadSvc)
	healthHandlers := handlers.NewHealthHandlers(store.Pinger, cacheSvc, Version)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(logger)

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(logging.RequestLogger(logger))
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     cfg.ClientURLs,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	e.GET("/", healthHandlers.Root)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/register", authHandlers.Register)
	api.POST("/login", authHandlers.Login, middleware.LoginThrottle(cacheSvc, cfg.LoginRateLimit, cfg.LoginRateWindow, logger))
	api.POST("/logout", authHandlers.Logout)

	requireSession := middleware.SessionAuth(authSvc, sessionSvc.CookieName())
	api.GET("/me", authHandlers.Me, requireSession)
	api.POST("/leads", leadHandlers.CreateLead, requireSession)
	api.GET("/leads", leadHandlers.ListLeads, requireSession)
	api.GET("/leads/:id", leadHandlers.GetLead, requireSession)
	api.PUT("/leads/:id", leadHandlers.UpdateLead, requireSession)
	api.DELETE("/leads/:id", leadHandlers.DeleteLead, requireSession)

	return e
}
