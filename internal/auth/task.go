package auth

import "context"

// Task is a pending send or verify call. Cancel aborts it; once cancelled,
// or superseded by a newer call, its completion no longer touches the flow.
type Task struct {
	done    chan struct{}
	err     error
	release context.CancelFunc
	abort   func()
}

func newTask(release context.CancelFunc, abort func()) *Task {
	return &Task{done: make(chan struct{}), release: release, abort: abort}
}

func (t *Task) finish(err error) {
	t.err = err
	t.release()
	close(t.done)
}

func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the outcome once Done is closed, nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes and returns its outcome.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Cancel detaches the call from the flow, then aborts it. Detaching first
// keeps the aborted call's completion from being applied.
func (t *Task) Cancel() {
	if t.abort != nil {
		t.abort()
	}
	t.release()
}
