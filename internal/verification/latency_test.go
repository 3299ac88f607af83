package verification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/verification"
)

type fakeService struct {
	sendCode   func(ctx context.Context, phone string) error
	verifyCode func(ctx context.Context, phone, code string) error
}

func (f *fakeService) SendCode(ctx context.Context, phone string) error {
	return f.sendCode(ctx, phone)
}

func (f *fakeService) VerifyCode(ctx context.Context, phone, code string) error {
	return f.verifyCode(ctx, phone, code)
}

func TestLatency_DelaysThenDelegates(t *testing.T) {
	clk := clock.NewMock(epoch)
	called := make(chan string, 1)
	inner := &fakeService{
		sendCode: func(_ context.Context, phone string) error {
			called <- phone
			return nil
		},
	}
	svc := verification.WithLatency(inner, clk, 1500*time.Millisecond, 1500*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- svc.SendCode(context.Background(), testPhone) }()

	waitPending(t, clk)
	clk.Advance(1499 * time.Millisecond)
	select {
	case <-called:
		t.Fatal("inner service called before the latency elapsed")
	default:
	}

	clk.Advance(time.Millisecond)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := <-called; got != testPhone {
		t.Errorf("phone = %q, want %q", got, testPhone)
	}
}

func TestLatency_CancelledBeforeInnerCall(t *testing.T) {
	clk := clock.NewMock(epoch)
	inner := &fakeService{
		verifyCode: func(_ context.Context, _, _ string) error {
			t.Error("inner service called after cancellation")
			return nil
		},
	}
	svc := verification.WithLatency(inner, clk, time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.VerifyCode(ctx, testPhone, "123456") }()

	waitPending(t, clk)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	clk.Advance(time.Hour)
}

func TestLatency_ZeroDelay(t *testing.T) {
	inner := &fakeService{
		verifyCode: func(_ context.Context, _, _ string) error { return nil },
	}
	svc := verification.WithLatency(inner, clock.NewMock(epoch), 0, 0)

	if err := svc.VerifyCode(context.Background(), testPhone, "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStub_AcceptsEverything(t *testing.T) {
	var svc verification.Service = verification.Stub{}
	ctx := context.Background()

	if err := svc.SendCode(ctx, testPhone); err != nil {
		t.Errorf("send: %v", err)
	}
	if err := svc.VerifyCode(ctx, testPhone, "000000"); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func waitPending(t *testing.T, m *clock.Mock) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for m.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for a pending timer")
		}
		time.Sleep(time.Millisecond)
	}
}
