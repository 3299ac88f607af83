package navigation

import (
	"log/slog"
	"sync"

	"github.com/yonima/shell/internal/domain"
)

// Navigator is the screen router the flows hand control to. Calls are
// fire-and-forget.
type Navigator interface {
	Replace(target domain.Screen)
	Back()
}

// Listener is told about every screen change. It runs after the stack lock
// is released, so it may call back into the stack.
type Listener func(from, to domain.Screen)

// Stack is a screen history. Replace swaps the top screen; Back pops it.
type Stack struct {
	mu       sync.Mutex
	screens  []domain.Screen
	listener Listener
	logger   *slog.Logger
}

func NewStack(root domain.Screen, logger *slog.Logger) *Stack {
	return &Stack{
		screens: []domain.Screen{root},
		logger:  logger.With("component", "navigation"),
	}
}

// OnChange installs the listener. Not safe to call concurrently with navigation.
func (s *Stack) OnChange(l Listener) {
	s.listener = l
}

// Push opens target on top of the current screen.
func (s *Stack) Push(target domain.Screen) {
	s.mu.Lock()
	from := s.topLocked()
	s.screens = append(s.screens, target)
	s.mu.Unlock()
	s.notify(from, target)
}

func (s *Stack) Replace(target domain.Screen) {
	s.mu.Lock()
	from := s.topLocked()
	if len(s.screens) == 0 {
		s.screens = append(s.screens, target)
	} else {
		s.screens[len(s.screens)-1] = target
	}
	s.mu.Unlock()
	s.notify(from, target)
}

// Back pops the top screen. Popping the last screen leaves the stack empty,
// which means the app was dismissed.
func (s *Stack) Back() {
	s.mu.Lock()
	if len(s.screens) == 0 {
		s.mu.Unlock()
		return
	}
	from := s.topLocked()
	s.screens = s.screens[:len(s.screens)-1]
	to := s.topLocked()
	s.mu.Unlock()
	s.notify(from, to)
}

// Current returns the visible screen, or "" when the stack is empty.
func (s *Stack) Current() domain.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topLocked()
}

func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

func (s *Stack) topLocked() domain.Screen {
	if len(s.screens) == 0 {
		return ""
	}
	return s.screens[len(s.screens)-1]
}

func (s *Stack) notify(from, to domain.Screen) {
	s.logger.Debug("navigate", "from", from, "to", to)
	if s.listener != nil {
		s.listener(from, to)
	}
}
