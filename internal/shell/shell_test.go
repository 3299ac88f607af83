package shell_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yonima/shell/internal/auth"
	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/domain"
	"github.com/yonima/shell/internal/infrastructure/memory"
	"github.com/yonima/shell/internal/metrics"
	"github.com/yonima/shell/internal/shell"
	"github.com/yonima/shell/internal/verification"
)

type fakeTokens struct {
	issue func(phone, deviceID string) (string, error)
}

func (f *fakeTokens) Issue(phone, deviceID string) (string, error) {
	if f.issue == nil {
		return "tok:" + phone + ":" + deviceID, nil
	}
	return f.issue(phone, deviceID)
}

type fixture struct {
	shell    *shell.Shell
	registry *shell.Registry
	store    *memory.KVStore
	clock    *clock.Mock
	logger   *slog.Logger
}

func newFixture(t *testing.T, splash time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		registry: shell.NewRegistry(),
		store:    memory.NewKVStore(),
		clock:    clock.NewMock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.shell = shell.New(f.store, verification.Stub{}, &fakeTokens{}, f.clock, f.registry, f.logger, shell.Config{
		SplashDelay: splash,
		Auth:        auth.DefaultConfig(),
	})
	return f
}

func (f *fixture) launch(t *testing.T, device string) *shell.Session {
	t.Helper()
	sess, err := f.shell.Launch(context.Background(), device)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func waitPending(t *testing.T, m *clock.Mock, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending timers", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLaunch_FirstLaunch_ShowsOnboarding(t *testing.T) {
	f := newFixture(t, 0)

	sess := f.launch(t, "device-a")

	v := sess.View()
	if v.Screen != domain.ScreenOnboarding {
		t.Fatalf("screen = %s, want onboarding", v.Screen)
	}
	if v.Onboarding == nil || v.Onboarding.Index != 0 || v.Onboarding.Total != 3 || v.Onboarding.ShowBack {
		t.Errorf("onboarding view = %+v", v.Onboarding)
	}
	if f.registry.Len() != 1 {
		t.Errorf("registry len = %d, want 1", f.registry.Len())
	}
}

func TestLaunch_WaitsForSplash(t *testing.T) {
	f := newFixture(t, 300*time.Millisecond)

	done := make(chan *shell.Session, 1)
	go func() {
		sess, err := f.shell.Launch(context.Background(), "device-a")
		if err != nil {
			t.Errorf("launch: %v", err)
		}
		done <- sess
	}()

	waitPending(t, f.clock, 1)
	f.clock.Advance(299 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("launch returned before the splash delay")
	default:
	}

	f.clock.Advance(time.Millisecond)
	sess := <-done
	defer sess.Close()
	if sess.Screen() != domain.ScreenOnboarding {
		t.Errorf("screen = %s, want onboarding", sess.Screen())
	}
}

func TestLaunch_CancelledDuringSplash(t *testing.T) {
	f := newFixture(t, 300*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := f.shell.Launch(ctx, "device-a")
		errc <- err
	}()
	waitPending(t, f.clock, 1)
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if f.registry.Len() != 0 {
		t.Errorf("registry len = %d, want 0", f.registry.Len())
	}
}

func TestOnboarding_NextThroughSlides_PersistsAndShowsLogin(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.launch(t, "device-a")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := sess.OnboardingNext(ctx); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if v := sess.View(); v.Onboarding.Index != 2 || !v.Onboarding.ShowBack {
		t.Fatalf("onboarding view = %+v", v.Onboarding)
	}

	if err := sess.OnboardingNext(ctx); err != nil {
		t.Fatalf("final next: %v", err)
	}
	if sess.Screen() != domain.ScreenLogin {
		t.Fatalf("screen = %s, want login", sess.Screen())
	}

	again := f.launch(t, "device-a")
	if again.Screen() != domain.ScreenLogin {
		t.Errorf("relaunch screen = %s, want login", again.Screen())
	}
	other := f.launch(t, "device-b")
	if other.Screen() != domain.ScreenOnboarding {
		t.Errorf("other device screen = %s, want onboarding", other.Screen())
	}
}

func TestOnboarding_Skip(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.launch(t, "device-a")

	if err := sess.OnboardingSkip(context.Background()); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if sess.Screen() != domain.ScreenLogin {
		t.Errorf("screen = %s, want login", sess.Screen())
	}
	if v, ok, _ := f.store.Get(context.Background(), "device:device-a:"+domain.OnboardingKey); !ok || v != "true" {
		t.Errorf("stored flag = (%q, %v), want (true, true)", v, ok)
	}
}

func TestOnboarding_BackOnFirstSlide(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.launch(t, "device-a")

	if err := sess.OnboardingBack(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if v := sess.View(); v.Onboarding.Index != 0 {
		t.Errorf("index = %d, want 0", v.Onboarding.Index)
	}
}

func TestActions_WrongScreen(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.launch(t, "device-a")

	if _, err := sess.Auth(); !errors.Is(err, domain.ErrWrongScreen) {
		t.Errorf("Auth on onboarding err = %v, want ErrWrongScreen", err)
	}

	_ = sess.OnboardingSkip(context.Background())
	if err := sess.OnboardingNext(context.Background()); !errors.Is(err, domain.ErrWrongScreen) {
		t.Errorf("Next on login err = %v, want ErrWrongScreen", err)
	}
}

func TestSignIn_ReachesHomeWithToken(t *testing.T) {
	f := newFixture(t, 0)
	_ = f.launch(t, "device-a").OnboardingSkip(context.Background())
	sess := f.launch(t, "device-a")

	flow, err := sess.Auth()
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	task, err := flow.SubmitPhoneNumber("77 123 45 67")
	if err != nil {
		t.Fatalf("submit phone: %v", err)
	}
	if err := task.Wait(); err != nil {
		t.Fatalf("send: %v", err)
	}
	if v := sess.View(); v.Auth == nil || v.Auth.Step != domain.StepOTP || v.Auth.CountryCode != "+221" {
		t.Fatalf("auth view = %+v", v.Auth)
	}

	task, err = flow.EnterDigit(0, "123456")
	if err != nil || task == nil {
		t.Fatalf("paste: (%v, %v)", task, err)
	}
	if err := task.Wait(); err != nil {
		t.Fatalf("verify: %v", err)
	}

	v := sess.View()
	if v.Screen != domain.ScreenHome {
		t.Fatalf("screen = %s, want home", v.Screen)
	}
	if v.Token != "tok:771234567:device-a" || v.Phone != "771234567" {
		t.Errorf("view = %+v", v)
	}
	if _, err := sess.Auth(); !errors.Is(err, domain.ErrWrongScreen) {
		t.Errorf("Auth on home err = %v, want ErrWrongScreen", err)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("%d timers still scheduled on home", f.clock.Pending())
	}
}

func TestSignIn_BackOnPhoneDismissesApp(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.launch(t, "device-a")
	_ = sess.OnboardingSkip(context.Background())

	flow, err := sess.Auth()
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	flow.GoBack()

	v := sess.View()
	if !v.Dismissed || v.Screen != "" {
		t.Errorf("view = %+v, want dismissed", v)
	}
	if _, err := flow.SubmitPhoneNumber("771234567"); !errors.Is(err, domain.ErrFlowClosed) {
		t.Errorf("flow still usable after leaving login: %v", err)
	}
}

func TestShell_CloseAndReset(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	sess := f.launch(t, "device-a")
	_ = sess.OnboardingSkip(ctx)

	if err := f.shell.Close(sess.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := f.shell.Session(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("get after close err = %v, want ErrSessionNotFound", err)
	}
	if err := f.shell.Close(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("double close err = %v, want ErrSessionNotFound", err)
	}

	f.shell.ResetOnboarding(ctx, "device-a")
	if again := f.launch(t, "device-a"); again.Screen() != domain.ScreenOnboarding {
		t.Errorf("screen after reset = %s, want onboarding", again.Screen())
	}
}

func TestReaper_ClosesIdleSessions(t *testing.T) {
	f := newFixture(t, 0)
	reaper := shell.NewReaper(f.registry, f.clock, 15*time.Minute, "@every 1m", f.logger)

	idle := f.launch(t, "device-a")
	active := f.launch(t, "device-b")

	f.clock.Advance(10 * time.Minute)
	_ = active.OnboardingBack()
	f.clock.Advance(10 * time.Minute)

	before := testutil.ToFloat64(metrics.SessionsReapedTotal)
	if n := reaper.Reap(); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if got := testutil.ToFloat64(metrics.SessionsReapedTotal) - before; got != 1 {
		t.Errorf("reaped counter delta = %v, want 1", got)
	}
	if _, err := f.registry.Get(idle.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("idle session still registered: %v", err)
	}
	if _, err := f.registry.Get(active.ID); err != nil {
		t.Errorf("active session reaped: %v", err)
	}
	if got := testutil.ToFloat64(metrics.SessionsLive); got != 1 {
		t.Errorf("sessions_live = %v, want 1", got)
	}
}

func TestReaper_StopsFlowTimers(t *testing.T) {
	f := newFixture(t, 0)
	reaper := shell.NewReaper(f.registry, f.clock, 30*time.Second, "@every 1m", f.logger)
	sess := f.launch(t, "device-a")
	_ = sess.OnboardingSkip(context.Background())

	flow, _ := sess.Auth()
	task, err := flow.SubmitPhoneNumber("781234567")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = task.Wait()
	if f.clock.Pending() != 1 {
		t.Fatalf("pending = %d, want the resend countdown", f.clock.Pending())
	}

	f.clock.Advance(31 * time.Second)
	if f.clock.Pending() != 1 {
		t.Fatalf("countdown stopped early")
	}
	if n := reaper.Reap(); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("pending = %d after reaping", f.clock.Pending())
	}
}

func TestReaper_BadSchedule(t *testing.T) {
	f := newFixture(t, 0)
	reaper := shell.NewReaper(f.registry, f.clock, time.Minute, "not a schedule", f.logger)

	if err := reaper.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
