// Package verification sends and checks phone verification codes.
package verification

import "context"

// Service is the verification capability the sign-in flow talks to.
//
// VerifyCode returns nil on success, or one of domain.ErrCodeMismatch,
// domain.ErrCodeExpired or domain.ErrRateLimited. Both calls honour ctx.
type Service interface {
	SendCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) error
}

// Stub accepts every phone and every code.
type Stub struct{}

func (Stub) SendCode(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (Stub) VerifyCode(ctx context.Context, _, _ string) error {
	return ctx.Err()
}
