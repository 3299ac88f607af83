package auth

import (
	"time"

	"github.com/yonima/shell/internal/clock"
)

// Countdown is the resend cooldown. It owns its repeating timer, which only
// runs between Restart and the moment it reaches zero or is stopped.
type Countdown struct {
	clock    clock.Clock
	interval time.Duration
	start    int

	remaining int
	timer     clock.Timer
}

func NewCountdown(c clock.Clock, interval time.Duration, start int) *Countdown {
	return &Countdown{clock: c, interval: interval, start: start}
}

func (c *Countdown) Remaining() int { return c.remaining }

// Restart sets the counter back to its start value and schedules onTick
// every interval.
func (c *Countdown) Restart(onTick func()) {
	c.Stop()
	c.remaining = c.start
	if c.remaining > 0 {
		c.timer = c.clock.Every(c.interval, onTick)
	}
}

// Tick decrements the counter, never below zero. The timer stops at zero.
func (c *Countdown) Tick() {
	if c.remaining <= 0 {
		c.Stop()
		return
	}
	c.remaining--
	if c.remaining == 0 {
		c.Stop()
	}
}

func (c *Countdown) Stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
