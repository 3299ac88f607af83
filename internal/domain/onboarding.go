package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrWrongScreen     = errors.New("action not available on the current screen")
)

// OnboardingKey is the storage key of the "has seen onboarding" flag.
const OnboardingKey = "yonima_has_seen_onboarding"

// OnboardingStatus is the cached copy of the persisted onboarding flag.
type OnboardingStatus struct {
	HasCompleted bool
}

// FirstLaunch is the inverse of HasCompleted.
func (s OnboardingStatus) FirstLaunch() bool {
	return !s.HasCompleted
}

// Screen is a navigation target of the app shell.
type Screen string

const (
	ScreenSplash     Screen = "splash"
	ScreenOnboarding Screen = "onboarding"
	ScreenLogin      Screen = "login"
	ScreenHome       Screen = "home"
)
