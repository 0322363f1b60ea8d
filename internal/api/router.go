package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/whisperbox/whisperbox-api/docs"
	"github.com/whisperbox/whisperbox-api/internal/api/handler"
	"github.com/whisperbox/whisperbox-api/internal/api/middleware"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// Deps carries everything the HTTP layer needs. Redis is optional; without it
// rate-limit counters are kept in memory.
type Deps struct {
	Registration ports.RegistrationService
	Auth         ports.AuthService
	Messages     ports.MessageService
	Suggester    ports.Suggester
	HealthChecks map[string]handler.Check
	Redis        *redis.Client
	Log          zerolog.Logger

	// Registry replaces the default Prometheus registry for HTTP metrics.
	Registry *prometheus.Registry

	JWTSecret         string
	RateLimitAuth     string
	RateLimitMessages string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	promCfg := echoprometheus.MiddlewareConfig{
		Namespace: "whisperbox",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}
	metricsHandler := echoprometheus.NewHandler()
	if d.Registry != nil {
		promCfg.Registerer = d.Registry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry})
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	authLimit, err := middleware.NewIPRateLimiter("auth", d.RateLimitAuth, d.Redis, d.Log)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	messageLimit, err := middleware.NewIPRateLimiter("messages", d.RateLimitMessages, d.Redis, d.Log)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	requireAuth := middleware.Auth(d.JWTSecret)

	// --- Dependencies ---
	registrationHandler := handler.NewRegistrationHandler(d.Registration)
	authHandler := handler.NewAuthHandler(d.Auth)
	messageHandler := handler.NewMessageHandler(d.Messages, d.Suggester)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)

	// --- Registration ---
	e.GET("/check-username", registrationHandler.CheckUsername)
	e.POST("/sign-up", registrationHandler.SignUp, authLimit)
	e.POST("/verify-code", registrationHandler.VerifyCode, authLimit)
	e.POST("/resend-code", registrationHandler.ResendCode, authLimit)
	e.POST("/sign-in", authHandler.SignIn, authLimit)

	// --- Messages ---
	e.POST("/send-message", messageHandler.SendMessage, messageLimit)
	e.POST("/suggest-messages", messageHandler.SuggestMessages, messageLimit)
	e.GET("/get-messages", messageHandler.GetMessages, requireAuth)
	e.DELETE("/delete-message/:id", messageHandler.DeleteMessage, requireAuth)
	e.GET("/accept-messages", messageHandler.GetAcceptMessages, requireAuth)
	e.POST("/accept-messages", messageHandler.SetAcceptMessages, requireAuth)
	e.GET("/count-messages", messageHandler.CountMessages)
	e.GET("/count-users", messageHandler.CountUsers)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}
