package verification

import (
	"context"
	"log/slog"

	"github.com/yonima/shell/internal/domain"
)

// Sender delivers a plain code to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSender logs codes instead of texting them. There is no SMS gateway.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "log_sender")}
}

func (s *LogSender) Send(ctx context.Context, phone, code string) error {
	s.logger.InfoContext(ctx, "verification code (local dev)",
		"to", "+"+domain.InternationalPhone(phone),
		"code", code,
	)
	return nil
}
