package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/yonima/shell/internal/clock"
	"github.com/yonima/shell/internal/domain"
)

const (
	defaultCodeTTL      = 5 * time.Minute
	maxVerifyAttempts   = 5
	maxSendsPerWindow   = 3
	defaultSendWindow   = 10 * time.Minute
	defaultDigits       = 6
)

type challenge struct {
	codeHash  string
	expiresAt time.Time
	attempts  int
}

// LocalOTP issues real random codes and checks them in process. Only the
// SHA-256 hash of a code is kept.
type LocalOTP struct {
	sender Sender
	clock  clock.Clock
	digits int
	ttl    time.Duration
	window time.Duration

	mu         sync.Mutex
	challenges map[string]*challenge
	sends      map[string][]time.Time
}

type Option func(*LocalOTP)

func WithDigits(n int) Option { return func(s *LocalOTP) { s.digits = n } }

func WithCodeTTL(d time.Duration) Option { return func(s *LocalOTP) { s.ttl = d } }

func WithClock(c clock.Clock) Option { return func(s *LocalOTP) { s.clock = c } }

func NewLocalOTP(sender Sender, opts ...Option) *LocalOTP {
	s := &LocalOTP{
		sender:     sender,
		clock:      clock.Real{},
		digits:     defaultDigits,
		ttl:        defaultCodeTTL,
		window:     defaultSendWindow,
		challenges: make(map[string]*challenge),
		sends:      make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendCode issues a fresh code for phone, replacing any previous one.
func (s *LocalOTP) SendCode(ctx context.Context, phone string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	code, err := generateCode(s.digits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.clock.Now()
	s.mu.Lock()
	recent := s.sends[phone][:0]
	for _, at := range s.sends[phone] {
		if now.Sub(at) < s.window {
			recent = append(recent, at)
		}
	}
	if len(recent) >= maxSendsPerWindow {
		s.sends[phone] = recent
		s.mu.Unlock()
		return domain.ErrRateLimited
	}
	s.sends[phone] = append(recent, now)
	s.challenges[phone] = &challenge{
		codeHash:  hashCode(code),
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}
	return nil
}

// VerifyCode checks code against the outstanding challenge for phone. A
// matching code consumes the challenge.
func (s *LocalOTP) VerifyCode(ctx context.Context, phone, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[phone]
	if !ok {
		return domain.ErrCodeExpired
	}
	if !c.expiresAt.After(s.clock.Now()) {
		delete(s.challenges, phone)
		return domain.ErrCodeExpired
	}
	if c.attempts >= maxVerifyAttempts {
		return domain.ErrRateLimited
	}
	c.attempts++

	if subtle.ConstantTimeCompare([]byte(hashCode(code)), []byte(c.codeHash)) != 1 {
		if c.attempts >= maxVerifyAttempts {
			return domain.ErrRateLimited
		}
		return domain.ErrCodeMismatch
	}
	delete(s.challenges, phone)
	return nil
}

func generateCode(digits int) (string, error) {
	b := make([]byte, digits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, digits)
	for i := range b {
		s[i] = '0' + b[i]%10
	}
	return string(s), nil
}

func hashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}
