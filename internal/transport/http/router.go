package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/yonima/shell/internal/transport/http/handler"
	"github.com/yonima/shell/internal/transport/http/middleware"
)

type RouterConfig struct {
	// DebugRoutes enables the onboarding reset route.
	DebugRoutes bool
}

func NewRouter(
	logger *slog.Logger,
	sessionHandler *handler.SessionHandler,
	healthHandler *handler.HealthHandler,
	tokens middleware.TokenParser,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz", healthHandler.Live)
	r.GET("/readyz", healthHandler.Ready)

	devices := r.Group("/devices/:device")
	devices.POST("/launch", sessionHandler.Launch)
	if cfg.DebugRoutes {
		devices.POST("/onboarding/reset", sessionHandler.ResetOnboarding)
	}

	sessions := r.Group("/sessions/:id", middleware.SessionID())
	sessions.GET("", sessionHandler.Get)
	sessions.DELETE("", sessionHandler.Close)
	sessions.POST("/onboarding/next", sessionHandler.OnboardingNext)
	sessions.POST("/onboarding/back", sessionHandler.OnboardingBack)
	sessions.POST("/onboarding/skip", sessionHandler.OnboardingSkip)
	sessions.PUT("/auth/phone", sessionHandler.TypePhone)
	sessions.POST("/auth/phone", sessionHandler.SubmitPhone)
	sessions.POST("/auth/code", sessionHandler.SubmitCode)
	sessions.POST("/auth/cells/:index", sessionHandler.EnterDigit)
	sessions.POST("/auth/cells/:index/backspace", sessionHandler.Backspace)
	sessions.POST("/auth/back", sessionHandler.GoBack)
	sessions.POST("/auth/resend", sessionHandler.Resend)

	r.GET("/home", middleware.Auth(tokens), handler.Home)

	return r
}
