package stream

import (
	"context"

	"github.com/pkg/errors"
)

// Event completes when the task it was returned for has run. It is the
// handle returned by every enqueue.
type Event struct {
	name string
	done chan struct{}
	err  error
}

func newEvent(name string) *Event {
	return &Event{name: name, done: make(chan struct{})}
}

func (e *Event) finish(err error) {
	e.err = err
	close(e.done)
}

// Name returns the name of the task the event belongs to.
func (e *Event) Name() string {
	return e.name
}

// Done returns a channel closed when the task has run.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Err returns the task error once the task has run, nil before that.
func (e *Event) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Wait blocks until the task has run or ctx is done. Cancelling ctx does not
// cancel the task.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "wait for %s", e.name)
	}
}
