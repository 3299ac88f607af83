package domain

import "errors"

var (
	ErrInvalidPhone   = errors.New("phone number format is invalid")
	ErrCodeLength     = errors.New("verification code has the wrong length")
	ErrWrongStep      = errors.New("operation not allowed in the current step")
	ErrBusy           = errors.New("a request is already in flight")
	ErrCooldownActive = errors.New("resend is not available yet")
	ErrFlowClosed     = errors.New("auth flow is closed")

	ErrCodeMismatch = errors.New("verification code does not match")
	ErrCodeExpired  = errors.New("verification code has expired")
	ErrRateLimited  = errors.New("too many verification attempts")
)

// Step is the stage of the phone sign-in flow.
type Step string

const (
	StepPhone Step = "PHONE"
	StepOTP   Step = "OTP"
)

// AuthSession is a point-in-time copy of the sign-in flow state.
type AuthSession struct {
	Step                  Step
	PhoneNumber           string
	IsSubmitting          bool
	ResendCooldownSeconds int
	ValidationError       bool
	Cells                 []string
	Focus                 int
	LastError             error
	Completed             bool
}

// IsVerificationFailure reports whether err is one of the outcomes a
// verification backend may return for a well-formed code.
func IsVerificationFailure(err error) bool {
	return errors.Is(err, ErrCodeMismatch) ||
		errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrRateLimited)
}
