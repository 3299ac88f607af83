package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yonima/shell/config"
	"github.com/yonima/shell/internal/auth"
	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/health"
	"github.com/yonima/shell/internal/infrastructure/memory"
	"github.com/yonima/shell/internal/infrastructure/postgres"
	ctxlog "github.com/yonima/shell/internal/log"
	"github.com/yonima/shell/internal/metrics"
	"github.com/yonima/shell/internal/repository"
	"github.com/yonima/shell/internal/shell"
	"github.com/yonima/shell/internal/token"
	httptransport "github.com/yonima/shell/internal/transport/http"
	"github.com/yonima/shell/internal/transport/http/handler"
	"github.com/yonima/shell/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Storage: Postgres when configured, process memory otherwise.
	var store repository.KVStore
	deps := map[string]health.Pinger{}
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		kv := postgres.NewKVRepository(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			stop()
			log.Fatalf("db schema: %v", err)
		}
		store = kv
		deps["postgres"] = pool
	} else {
		logger.Warn("DATABASE_URL not set, onboarding state will not survive a restart")
		kv := memory.NewKVStore()
		store = kv
		deps["kv"] = kv
	}

	clk := clock.Real{}
	verifier := newVerifier(cfg, clk, logger)
	tokens := token.NewIssuer([]byte(cfg.JWTSecret))

	registry := shell.NewRegistry()
	sh := shell.New(store, verifier, tokens, clk, registry, logger, shell.Config{
		SplashDelay: cfg.SplashDelay(),
		Auth: auth.Config{
			CodeLength:     cfg.CodeLength,
			ResendCooldown: cfg.ResendCooldown(),
			TickInterval:   time.Second,
		},
	})
	reaper := shell.NewReaper(registry, clk, cfg.SessionIdleTimeout(), cfg.ReaperSchedule, logger)

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(
			logger,
			handler.NewSessionHandler(sh, logger),
			handler.NewHealthHandler(checker),
			tokens,
			httptransport.RouterConfig{DebugRoutes: cfg.Env == "local"},
		),
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		if err := reaper.Start(ctx); err != nil {
			log.Fatalf("reaper: %v", err)
		}
	}()

	go func() {
		logger.Info("server started", "port", cfg.Port, "verification", cfg.VerificationMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newVerifier(cfg *config.Config, clk clock.Clock, logger *slog.Logger) verification.Service {
	var inner verification.Service = verification.Stub{}
	if cfg.VerificationMode == "otp" {
		inner = verification.NewLocalOTP(
			verification.NewLogSender(logger),
			verification.WithDigits(cfg.CodeLength),
			verification.WithClock(clk),
		)
	}
	return verification.WithLatency(inner, clk, cfg.SendLatency(), cfg.VerifyLatency())
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
