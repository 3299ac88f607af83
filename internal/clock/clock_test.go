package clock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yonima/shell/internal/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMock_AfterFuncFiresOnce(t *testing.T) {
	m := clock.NewMock(epoch)
	calls := 0
	m.AfterFunc(time.Second, func() { calls++ })

	m.Advance(999 * time.Millisecond)
	if calls != 0 {
		t.Fatalf("fired early: calls = %d", calls)
	}
	m.Advance(time.Millisecond)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	m.Advance(time.Hour)
	if calls != 1 {
		t.Fatalf("one-shot fired again: calls = %d", calls)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", m.Pending())
	}
}

func TestMock_EveryRepeatsUntilStopped(t *testing.T) {
	m := clock.NewMock(epoch)
	calls := 0
	tm := m.Every(time.Second, func() { calls++ })

	m.Advance(3 * time.Second)
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !tm.Stop() {
		t.Error("Stop on active timer returned false")
	}
	m.Advance(3 * time.Second)
	if calls != 3 {
		t.Fatalf("stopped timer fired: calls = %d", calls)
	}
	if tm.Stop() {
		t.Error("second Stop returned true")
	}
}

func TestMock_StopFromCallback(t *testing.T) {
	m := clock.NewMock(epoch)
	calls := 0
	var tm clock.Timer
	tm = m.Every(time.Second, func() {
		calls++
		if calls == 2 {
			tm.Stop()
		}
	})

	m.Advance(10 * time.Second)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestMock_FiresInDueOrder(t *testing.T) {
	m := clock.NewMock(epoch)
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })
	m.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	m.Advance(5 * time.Second)
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !m.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("Now = %v", m.Now())
	}
}

func TestSleep_ReturnsAfterAdvance(t *testing.T) {
	m := clock.NewMock(epoch)
	done := make(chan error, 1)
	go func() { done <- clock.Sleep(context.Background(), m, time.Second) }()

	waitPending(t, m, 1)
	m.Advance(time.Second)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep did not return")
	}
}

func TestSleep_Cancelled(t *testing.T) {
	m := clock.NewMock(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- clock.Sleep(ctx, m, time.Hour) }()

	waitPending(t, m, 1)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep did not return after cancel")
	}
	if m.Pending() != 0 {
		t.Errorf("timer not stopped: Pending = %d", m.Pending())
	}
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	clock.Real{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}

func waitPending(t *testing.T, m *clock.Mock, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for m.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending timers", n)
		}
		time.Sleep(time.Millisecond)
	}
}
