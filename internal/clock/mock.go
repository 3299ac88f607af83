package clock

import (
	"sort"
	"sync"
	"time"
)

// Mock is a Clock whose time only moves when Advance is called. Callbacks
// run synchronously on the goroutine calling Advance, in due order.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*mockTimer
}

func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

type mockTimer struct {
	m        *Mock
	seq      int
	due      time.Time
	interval time.Duration
	f        func()
	active   bool
}

func (t *mockTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Mock) AfterFunc(d time.Duration, f func()) Timer {
	return m.schedule(d, 0, f)
}

func (m *Mock) Every(d time.Duration, f func()) Timer {
	return m.schedule(d, d, f)
}

func (m *Mock) schedule(d, interval time.Duration, f func()) *mockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &mockTimer{m: m, seq: m.seq, due: m.now.Add(d), interval: interval, f: f, active: true}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the number of active timers.
func (m *Mock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if t.active {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.compact()
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.interval > 0 {
			next.due = next.due.Add(next.interval)
		} else {
			next.active = false
		}
		f := next.f
		m.mu.Unlock()

		f()
	}
}

func (m *Mock) nextDue(limit time.Time) *mockTimer {
	var next *mockTimer
	for _, t := range m.timers {
		if !t.active || t.due.After(limit) {
			continue
		}
		if next == nil || t.due.Before(next.due) || (t.due.Equal(next.due) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *Mock) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if t.active {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool { return m.timers[i].seq < m.timers[j].seq })
}
