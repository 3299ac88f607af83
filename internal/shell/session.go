package shell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yonima/shell/internal/auth"
	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/domain"
	"github.com/yonima/shell/internal/navigation"
	"github.com/yonima/shell/internal/onboarding"
	"github.com/yonima/shell/internal/verification"
)

// Session is one running instance of the app on a device: the screen
// stack, the onboarding carousel and, while on the login screen, the
// sign-in flow.
//
// s.mu is never held while calling into the flow, because the flow calls
// the navigator, whose listener takes s.mu.
type Session struct {
	ID       string
	DeviceID string

	gate     *onboarding.Gate
	nav      *navigation.Stack
	carousel *onboarding.Carousel
	verifier verification.Service
	tokens   TokenIssuer
	clock    clock.Clock
	authCfg  auth.Config
	logger   *slog.Logger

	mu       sync.Mutex
	flow     *auth.Flow
	phone    string
	token    string
	lastSeen time.Time
	closed   bool
}

// TokenIssuer signs the session token handed out on reaching home.
type TokenIssuer interface {
	Issue(phone, deviceID string) (string, error)
}

// View is the JSON rendering of a session.
type View struct {
	ID         string          `json:"id"`
	DeviceID   string          `json:"device_id"`
	Screen     domain.Screen   `json:"screen"`
	Dismissed  bool            `json:"dismissed,omitempty"`
	Onboarding *OnboardingView `json:"onboarding,omitempty"`
	Auth       *AuthView       `json:"auth,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Token      string          `json:"token,omitempty"`
}

type OnboardingView struct {
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Slide    onboarding.Slide `json:"slide"`
	ShowBack bool             `json:"show_back"`
}

type AuthView struct {
	Step                  domain.Step `json:"step"`
	CountryCode           string      `json:"country_code"`
	PhoneNumber           string      `json:"phone_number"`
	IsSubmitting          bool        `json:"is_submitting"`
	ResendCooldownSeconds int         `json:"resend_cooldown_seconds"`
	ValidationError       bool        `json:"validation_error"`
	Cells                 []string    `json:"cells"`
	Focus                 int         `json:"focus"`
	Error                 string      `json:"error,omitempty"`
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

// LastSeen is the time of the last action on the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) Screen() domain.Screen {
	return s.nav.Current()
}

// boot shows the splash for delay, reads the onboarding flag and routes to
// the carousel or the login screen.
func (s *Session) boot(ctx context.Context, delay time.Duration) error {
	if err := clock.Sleep(ctx, s.clock, delay); err != nil {
		return err
	}
	status := s.gate.LoadStatus(ctx)
	if status.FirstLaunch() {
		s.nav.Replace(domain.ScreenOnboarding)
	} else {
		s.nav.Replace(domain.ScreenLogin)
	}
	return nil
}

// OnboardingNext advances the carousel, finishing onboarding on the last slide.
func (s *Session) OnboardingNext(ctx context.Context) error {
	if err := s.onScreen(domain.ScreenOnboarding); err != nil {
		return err
	}
	s.mu.Lock()
	finished := s.carousel.Next()
	s.mu.Unlock()
	if finished {
		s.finishOnboarding(ctx)
	}
	return nil
}

func (s *Session) OnboardingBack() error {
	if err := s.onScreen(domain.ScreenOnboarding); err != nil {
		return err
	}
	s.mu.Lock()
	s.carousel.Back()
	s.mu.Unlock()
	return nil
}

func (s *Session) OnboardingSkip(ctx context.Context) error {
	if err := s.onScreen(domain.ScreenOnboarding); err != nil {
		return err
	}
	s.finishOnboarding(ctx)
	return nil
}

func (s *Session) finishOnboarding(ctx context.Context) {
	s.gate.MarkCompleted(ctx)
	s.nav.Replace(domain.ScreenLogin)
}

// Auth returns the sign-in flow. It is only available on the login screen.
func (s *Session) Auth() (*auth.Flow, error) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrSessionNotFound
	}
	if s.flow == nil {
		return nil, domain.ErrWrongScreen
	}
	return s.flow, nil
}

func (s *Session) onScreen(want domain.Screen) error {
	s.touch()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return domain.ErrSessionNotFound
	}
	if s.nav.Current() != want {
		return domain.ErrWrongScreen
	}
	return nil
}

// onNavigate keeps the flow's lifetime tied to the login screen and issues
// the session token when home is reached.
func (s *Session) onNavigate(from, to domain.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if from == domain.ScreenLogin && to != domain.ScreenLogin && s.flow != nil {
		s.phone = s.flow.Snapshot().PhoneNumber
		s.flow.Close()
		s.flow = nil
	}
	if to == domain.ScreenLogin && s.flow == nil {
		s.flow = auth.NewFlow(s.verifier, s.nav, s.clock, s.logger, s.authCfg)
	}
	if to == domain.ScreenHome && s.phone != "" {
		tok, err := s.tokens.Issue(s.phone, s.DeviceID)
		if err != nil {
			s.logger.Error("issue session token", "error", err)
			return
		}
		s.token = tok
	}
	if to == "" {
		s.logger.Info("app dismissed")
	}
}

// Close tears the session down; the sign-in flow's pending calls and
// timers are cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.flow != nil {
		s.flow.Close()
		s.flow = nil
	}
}

func (s *Session) View() View {
	screen := s.nav.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.ID,
		DeviceID:  s.DeviceID,
		Screen:    screen,
		Dismissed: screen == "",
		Token:     s.token,
	}
	switch screen {
	case domain.ScreenOnboarding:
		v.Onboarding = &OnboardingView{
			Index:    s.carousel.Index(),
			Total:    s.carousel.Len(),
			Slide:    s.carousel.Current(),
			ShowBack: s.carousel.ShowBack(),
		}
	case domain.ScreenLogin:
		if s.flow != nil {
			v.Auth = authView(s.flow.Snapshot())
		}
	case domain.ScreenHome:
		v.Phone = s.phone
	}
	return v
}

func authView(a domain.AuthSession) *AuthView {
	v := &AuthView{
		Step:                  a.Step,
		CountryCode:           domain.CountryCode,
		PhoneNumber:           a.PhoneNumber,
		IsSubmitting:          a.IsSubmitting,
		ResendCooldownSeconds: a.ResendCooldownSeconds,
		ValidationError:       a.ValidationError,
		Cells:                 a.Cells,
		Focus:                 a.Focus,
	}
	if a.LastError != nil {
		v.Error = a.LastError.Error()
	}
	return v
}
