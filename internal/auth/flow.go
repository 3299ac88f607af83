package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/domain"
	"github.com/yonima/shell/internal/metrics"
	"github.com/yonima/shell/internal/navigation"
	"github.com/yonima/shell/internal/verification"
)

const phoneDigits = 9

type Config struct {
	CodeLength     int
	ResendCooldown int
	TickInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		CodeLength:     6,
		ResendCooldown: 59,
		TickInterval:   time.Second,
	}
}

// Flow is the phone sign-in state machine: PHONE, then OTP, then a hand-off
// to the navigator once the code is verified.
//
// Send and verify calls run as cancellable Tasks. At most one is in flight;
// a second one is rejected with domain.ErrBusy. Completions that arrive
// after Close, GoBack or Task.Cancel are dropped.
type Flow struct {
	cfg      Config
	verifier verification.Service
	nav      navigation.Navigator
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	step          domain.Step
	phone         string
	submitting    bool
	validationErr bool
	lastErr       error
	completed     bool
	closed        bool
	input         *CodeInput
	countdown     *Countdown
	pending       *Task
	opSeq         uint64
	tickSeq       uint64
}

func NewFlow(
	verifier verification.Service,
	nav navigation.Navigator,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Flow {
	ctx, cancel := context.WithCancel(context.Background())
	return &Flow{
		cfg:       cfg,
		verifier:  verifier,
		nav:       nav,
		logger:    logger.With("component", "auth_flow"),
		ctx:       ctx,
		cancel:    cancel,
		step:      domain.StepPhone,
		input:     NewCodeInput(cfg.CodeLength),
		countdown: NewCountdown(clk, cfg.TickInterval, cfg.ResendCooldown),
	}
}

// SetPhoneNumber records what is typed in the phone field: digits only,
// at most nine. Typing clears a previous validation error. The field only
// exists on PHONE; elsewhere this is a no-op.
func (f *Flow) SetPhoneNumber(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usableLocked() != nil || f.step != domain.StepPhone || f.submitting {
		return
	}
	f.phone = truncate(domain.NormalizePhone(text), phoneDigits)
	f.validationErr = false
}

// SubmitPhoneNumber validates raw and, when it is a valid mobile number,
// asks the verification service to send a code. The flow enters OTP when
// the returned task succeeds. An invalid number sets the validation error
// and returns domain.ErrInvalidPhone without issuing any request.
func (f *Flow) SubmitPhoneNumber(raw string) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return nil, err
	}
	if f.step != domain.StepPhone {
		return nil, domain.ErrWrongStep
	}
	if f.submitting {
		return nil, domain.ErrBusy
	}

	phone, err := domain.ValidatePhone(raw)
	f.phone = phone
	if err != nil {
		f.validationErr = true
		metrics.PhoneValidationFailuresTotal.Inc()
		return nil, err
	}
	f.validationErr = false

	return f.sendLocked(phone), nil
}

// Resend requests a fresh code for the number already entered. It is only
// available on the OTP step once the cooldown has reached zero.
func (f *Flow) Resend() (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return nil, err
	}
	if f.step != domain.StepOTP {
		return nil, domain.ErrWrongStep
	}
	if f.submitting {
		return nil, domain.ErrBusy
	}
	if f.countdown.Remaining() > 0 {
		return nil, domain.ErrCooldownActive
	}
	return f.sendLocked(f.phone), nil
}

// SubmitCode verifies a complete code. On success the navigator replaces
// the login screen with home and the flow is finished; on a verification
// failure the cells are cleared and the flow stays on OTP.
func (f *Flow) SubmitCode(code string) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return nil, err
	}
	if f.step != domain.StepOTP {
		return nil, domain.ErrWrongStep
	}
	if len(code) != f.cfg.CodeLength {
		return nil, domain.ErrCodeLength
	}
	if f.submitting {
		return nil, domain.ErrBusy
	}
	f.input.MarkSubmitted(code)
	return f.verifyLocked(code), nil
}

// EnterDigit applies a text change on a code cell. When the change
// completes a code that was not submitted yet, verification starts and its
// task is returned; otherwise the task is nil.
func (f *Flow) EnterDigit(index int, text string) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return nil, err
	}
	if f.step != domain.StepOTP {
		return nil, domain.ErrWrongStep
	}

	code, ready := f.input.Change(index, text)
	if !ready {
		return nil, nil
	}
	if f.submitting {
		return nil, domain.ErrBusy
	}
	f.input.MarkSubmitted(code)
	return f.verifyLocked(code), nil
}

// Backspace handles the backspace key on a code cell.
func (f *Flow) Backspace(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return err
	}
	if f.step != domain.StepOTP {
		return domain.ErrWrongStep
	}
	f.input.Backspace(index)
	return nil
}

// GoBack returns from OTP to PHONE, keeping the entered number. On PHONE it
// asks the navigator to leave the flow and changes nothing itself.
func (f *Flow) GoBack() {
	f.mu.Lock()
	if f.closed || f.completed {
		f.mu.Unlock()
		return
	}
	if f.step == domain.StepOTP {
		f.abandonPendingLocked()
		f.countdown.Stop()
		f.tickSeq++
		f.transitionLocked(domain.StepPhone)
		f.validationErr = false
		f.lastErr = nil
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	f.nav.Back()
}

// TickResendTimer decrements the resend cooldown by one. It has no effect
// outside OTP or once the cooldown is zero.
func (f *Flow) TickResendTimer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickLocked()
}

// Close tears the flow down: the pending task is cancelled, the countdown
// stops, and later completions are ignored.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.abandonPendingLocked()
	f.countdown.Stop()
	f.tickSeq++
	f.cancel()
}

func (f *Flow) Snapshot() domain.AuthSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.AuthSession{
		Step:                  f.step,
		PhoneNumber:           f.phone,
		IsSubmitting:          f.submitting,
		ResendCooldownSeconds: f.countdown.Remaining(),
		ValidationError:       f.validationErr,
		Cells:                 f.input.Cells(),
		Focus:                 f.input.Focus(),
		LastError:             f.lastErr,
		Completed:             f.completed,
	}
}

func (f *Flow) usableLocked() error {
	if f.closed || f.completed {
		return domain.ErrFlowClosed
	}
	return nil
}

func (f *Flow) sendLocked(phone string) *Task {
	return f.startLocked(
		func(ctx context.Context) error { return f.verifier.SendCode(ctx, phone) },
		f.onSentLocked,
	)
}

func (f *Flow) verifyLocked(code string) *Task {
	phone := f.phone
	return f.startLocked(
		func(ctx context.Context) error { return f.verifier.VerifyCode(ctx, phone, code) },
		f.onVerifiedLocked,
	)
}

// startLocked runs op in the background as the flow's single pending call.
// onDone runs under the lock if the call is still current when it returns;
// the functions it returns run after the lock is released.
func (f *Flow) startLocked(op func(ctx context.Context) error, onDone func(err error) []func()) *Task {
	f.opSeq++
	seq := f.opSeq
	f.submitting = true
	f.lastErr = nil

	ctx, release := context.WithCancel(f.ctx)
	task := newTask(release, func() { f.abandon(seq) })
	f.pending = task

	go func() {
		err := op(ctx)

		f.mu.Lock()
		current := !f.closed && seq == f.opSeq
		var after []func()
		if current {
			f.pending = nil
			f.submitting = false
			after = onDone(err)
		}
		f.mu.Unlock()

		for _, fn := range after {
			fn()
		}
		if !current && err == nil {
			err = context.Canceled
		}
		task.finish(err)
	}()
	return task
}

func (f *Flow) onSentLocked(err error) []func() {
	if err != nil {
		f.recordErrorLocked("send code", err)
		return nil
	}
	f.enterOTPLocked()
	return nil
}

func (f *Flow) onVerifiedLocked(err error) []func() {
	if err != nil {
		f.recordErrorLocked("verify code", err)
		f.input.Reset()
		return nil
	}
	f.completed = true
	f.countdown.Stop()
	f.tickSeq++
	metrics.AuthTransitionsTotal.WithLabelValues(string(domain.StepOTP), "verified").Inc()
	f.logger.Info("phone verified")
	return []func(){func() { f.nav.Replace(domain.ScreenHome) }}
}

// enterOTPLocked is the only way into OTP; it always restarts the cooldown.
func (f *Flow) enterOTPLocked() {
	f.transitionLocked(domain.StepOTP)
	f.input.Reset()
	f.tickSeq++
	seq := f.tickSeq
	f.countdown.Restart(func() { f.onTick(seq) })
}

func (f *Flow) onTick(seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.tickSeq {
		return
	}
	f.tickLocked()
}

func (f *Flow) tickLocked() {
	if f.closed || f.step != domain.StepOTP {
		return
	}
	f.countdown.Tick()
}

func (f *Flow) transitionLocked(to domain.Step) {
	from := f.step
	f.step = to
	metrics.AuthTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	f.logger.Debug("auth step", "from", from, "to", to)
}

func (f *Flow) recordErrorLocked(op string, err error) {
	f.lastErr = err
	if domain.IsVerificationFailure(err) || errors.Is(err, context.Canceled) {
		f.logger.Info(op+" rejected", "error", err)
		return
	}
	f.logger.Warn(op, "error", err)
}

// abandon detaches the task with sequence seq if it is still pending.
func (f *Flow) abandon(seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq == f.opSeq && f.pending != nil {
		f.pending = nil
		f.submitting = false
		f.opSeq++
	}
}

func (f *Flow) abandonPendingLocked() {
	if f.pending == nil {
		return
	}
	f.pending.release()
	f.pending = nil
	f.submitting = false
	f.opSeq++
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
