package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/metrics"
)

// Reaper closes sessions that have been idle longer than the timeout, on a
// cron schedule.
type Reaper struct {
	registry    *Registry
	clock       clock.Clock
	idleTimeout time.Duration
	schedule    string
	logger      *slog.Logger
}

func NewReaper(registry *Registry, clk clock.Clock, idleTimeout time.Duration, schedule string, logger *slog.Logger) *Reaper {
	return &Reaper{
		registry:    registry,
		clock:       clk,
		idleTimeout: idleTimeout,
		schedule:    schedule,
		logger:      logger.With("component", "reaper"),
	}
}

// Start runs the reaper until ctx is done. It fails only on a bad schedule.
func (r *Reaper) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() { r.Reap() }); err != nil {
		return fmt.Errorf("reaper schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.logger.Info("reaper started", "schedule", r.schedule, "idle_timeout", r.idleTimeout)

	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("reaper shut down")
	return nil
}

// Reap closes every idle session and returns how many it closed.
func (r *Reaper) Reap() int {
	start := time.Now()
	defer func() { metrics.ReaperCycleDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := r.clock.Now().Add(-r.idleTimeout)
	reaped := 0
	for _, s := range r.registry.IdleSince(cutoff) {
		if _, err := r.registry.Remove(s.ID); err != nil {
			continue
		}
		s.Close()
		reaped++
	}
	if reaped > 0 {
		metrics.SessionsReapedTotal.Add(float64(reaped))
		r.logger.Info("reaped idle sessions", "count", reaped)
	}
	return reaped
}
