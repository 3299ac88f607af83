// Package shell runs app sessions: splash, onboarding, sign-in and home.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yonima/shell/internal/auth"
	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/domain"
	"github.com/yonima/shell/internal/navigation"
	"github.com/yonima/shell/internal/onboarding"
	"github.com/yonima/shell/internal/repository"
	"github.com/yonima/shell/internal/verification"
)

type Config struct {
	SplashDelay time.Duration
	Auth        auth.Config
}

// Shell launches sessions and keeps them in its registry.
type Shell struct {
	store    repository.KVStore
	verifier verification.Service
	tokens   TokenIssuer
	clock    clock.Clock
	registry *Registry
	cfg      Config
	logger   *slog.Logger
}

func New(
	store repository.KVStore,
	verifier verification.Service,
	tokens TokenIssuer,
	clk clock.Clock,
	registry *Registry,
	logger *slog.Logger,
	cfg Config,
) *Shell {
	return &Shell{
		store:    store,
		verifier: verifier,
		tokens:   tokens,
		clock:    clk,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With("component", "shell"),
	}
}

// Launch starts the app on deviceID. It blocks through the splash delay and
// returns once the session shows onboarding or login.
func (sh *Shell) Launch(ctx context.Context, deviceID string) (*Session, error) {
	id := uuid.NewString()
	logger := sh.logger.With("session_id", id, "device_id", deviceID)

	sess := &Session{
		ID:       id,
		DeviceID: deviceID,
		gate:     onboarding.NewGate(repository.DeviceStore(sh.store, deviceID), logger),
		nav:      navigation.NewStack(domain.ScreenSplash, logger),
		carousel: onboarding.NewCarousel(onboarding.DefaultSlides),
		verifier: sh.verifier,
		tokens:   sh.tokens,
		clock:    sh.clock,
		authCfg:  sh.cfg.Auth,
		logger:   logger,
		lastSeen: sh.clock.Now(),
	}
	sess.nav.OnChange(sess.onNavigate)

	sh.registry.Add(sess)
	if err := sess.boot(ctx, sh.cfg.SplashDelay); err != nil {
		sh.registry.Remove(id)
		sess.Close()
		return nil, fmt.Errorf("launch: %w", err)
	}

	logger.InfoContext(ctx, "session launched", "screen", sess.Screen())
	return sess, nil
}

func (sh *Shell) Session(id string) (*Session, error) {
	return sh.registry.Get(id)
}

// Close ends a session and forgets it.
func (sh *Shell) Close(id string) error {
	sess, err := sh.registry.Remove(id)
	if err != nil {
		return err
	}
	sess.Close()
	sh.logger.Info("session closed", "session_id", id)
	return nil
}

// ResetOnboarding clears the onboarding flag of deviceID so its next launch
// is a first launch.
func (sh *Shell) ResetOnboarding(ctx context.Context, deviceID string) {
	gate := onboarding.NewGate(repository.DeviceStore(sh.store, deviceID), sh.logger)
	gate.Reset(ctx)
}
