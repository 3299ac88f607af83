package verification

import (
	"context"
	"errors"
	"time"

	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/metrics"
)

// Latency wraps a Service with a simulated network round trip. Cancelling
// ctx during the delay aborts the call before it reaches the inner service.
type Latency struct {
	inner  Service
	clock  clock.Clock
	send   time.Duration
	verify time.Duration
}

func WithLatency(inner Service, c clock.Clock, send, verify time.Duration) *Latency {
	return &Latency{inner: inner, clock: c, send: send, verify: verify}
}

func (l *Latency) SendCode(ctx context.Context, phone string) error {
	start := time.Now()
	err := l.call(ctx, l.send, func() error { return l.inner.SendCode(ctx, phone) })
	metrics.VerificationDuration.WithLabelValues("send", outcome(err)).Observe(time.Since(start).Seconds())
	return err
}

func (l *Latency) VerifyCode(ctx context.Context, phone, code string) error {
	start := time.Now()
	err := l.call(ctx, l.verify, func() error { return l.inner.VerifyCode(ctx, phone, code) })
	metrics.VerificationDuration.WithLabelValues("verify", outcome(err)).Observe(time.Since(start).Seconds())
	return err
}

func (l *Latency) call(ctx context.Context, d time.Duration, f func() error) error {
	if err := clock.Sleep(ctx, l.clock, d); err != nil {
		return err
	}
	return f()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
