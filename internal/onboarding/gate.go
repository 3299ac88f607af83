package onboarding

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yonima/shell/internal/domain"
	"github.com/yonima/shell/internal/metrics"
	"github.com/yonima/shell/internal/repository"
)

const completedValue = "true"

// Gate decides once per launch whether the onboarding carousel is shown.
//
// Store failures never reach the caller. A failed read fails open (the user
// is treated as returning) so a broken store cannot trap them in onboarding;
// a failed write leaves the cached status untouched, at worst onboarding is
// shown again on the next launch.
type Gate struct {
	store  repository.KVStore
	logger *slog.Logger

	mu     sync.RWMutex
	status domain.OnboardingStatus
	loaded bool
}

func NewGate(store repository.KVStore, logger *slog.Logger) *Gate {
	return &Gate{
		store:  store,
		logger: logger.With("component", "onboarding_gate"),
	}
}

// LoadStatus reads the persisted flag. An absent key means first launch.
func (g *Gate) LoadStatus(ctx context.Context) domain.OnboardingStatus {
	var status domain.OnboardingStatus

	_, ok, err := g.store.Get(ctx, domain.OnboardingKey)
	switch {
	case err != nil:
		g.logger.WarnContext(ctx, "read onboarding flag, failing open", "error", err)
		metrics.OnboardingLoadsTotal.WithLabelValues("fail_open").Inc()
		status.HasCompleted = true
	case !ok:
		metrics.OnboardingLoadsTotal.WithLabelValues("first_launch").Inc()
	default:
		metrics.OnboardingLoadsTotal.WithLabelValues("returning").Inc()
		status.HasCompleted = true
	}

	g.mu.Lock()
	g.status = status
	g.loaded = true
	g.mu.Unlock()

	return status
}

// MarkCompleted persists the flag. On failure the cached status is kept.
func (g *Gate) MarkCompleted(ctx context.Context) {
	if err := g.store.Set(ctx, domain.OnboardingKey, completedValue); err != nil {
		g.logger.WarnContext(ctx, "persist onboarding flag", "error", err)
		metrics.OnboardingWritesTotal.WithLabelValues("complete", "error").Inc()
		return
	}
	metrics.OnboardingWritesTotal.WithLabelValues("complete", "ok").Inc()

	g.mu.Lock()
	g.status.HasCompleted = true
	g.mu.Unlock()
}

// Reset clears the flag, restoring first-launch state. Debug only.
func (g *Gate) Reset(ctx context.Context) {
	if err := g.store.Remove(ctx, domain.OnboardingKey); err != nil {
		g.logger.WarnContext(ctx, "reset onboarding flag", "error", err)
		metrics.OnboardingWritesTotal.WithLabelValues("reset", "error").Inc()
		return
	}
	metrics.OnboardingWritesTotal.WithLabelValues("reset", "ok").Inc()

	g.mu.Lock()
	g.status.HasCompleted = false
	g.mu.Unlock()
}

// Status returns the cached copy and whether LoadStatus has run.
func (g *Gate) Status() (domain.OnboardingStatus, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status, g.loaded
}

// IsFirstLaunch reports the cached first-launch state. Before LoadStatus
// has run it reports false, matching the original loading behaviour.
func (g *Gate) IsFirstLaunch() bool {
	status, loaded := g.Status()
	return loaded && status.FirstLaunch()
}
