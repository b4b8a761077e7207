package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/config"
	"github.com/nvr-ai/go-cv/logging"
	"github.com/nvr-ai/go-cv/profiler"
	"github.com/nvr-ai/go-cv/status"
)

const (
	defaultQueueDepth   = 64
	defaultRowsPerBatch = 16
)

var streamSeq atomic.Uint64

// Stream is an ordered asynchronous queue of tasks executed on a Pool.
type Stream struct {
	name         string
	pool         *Pool
	tasks        chan *task
	rowsPerBatch int
	prof         *profiler.Profiler
	logger       *slog.Logger

	mu     sync.Mutex
	closed bool
	last   *Event

	errMu sync.Mutex
	err   error

	exited chan struct{}
}

type task struct {
	name string
	fn   func(*Pool) error
	ev   *Event
}

// Option configures a Stream.
type Option func(*Stream)

// WithName sets the name used in logs and errors.
func WithName(name string) Option {
	return func(s *Stream) { s.name = name }
}

// WithQueueDepth sets how many tasks may wait before Enqueue blocks.
func WithQueueDepth(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.tasks = make(chan *task, n)
		}
	}
}

// WithRowsPerBatch sets how many output rows a worker claims at a time.
func WithRowsPerBatch(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.rowsPerBatch = n
		}
	}
}

// WithProfiler records the duration of every task under its name.
func WithProfiler(p *profiler.Profiler) Option {
	return func(s *Stream) { s.prof = p }
}

// WithLogger overrides the module logger for this stream.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// New creates a stream executing on pool and starts its dispatcher.
//
// Returns:
// - The running stream; the caller closes it.
// - status.ErrInvalidValue if pool is nil.
func New(pool *Pool, opts ...Option) (*Stream, error) {
	if pool == nil {
		return nil, status.Invalidf("nil pool")
	}
	return newStream(pool, opts...), nil
}

func newStream(pool *Pool, opts ...Option) *Stream {
	s := &Stream{
		name:         fmt.Sprintf("stream-%d", streamSeq.Add(1)),
		pool:         pool,
		tasks:        make(chan *task, defaultQueueDepth),
		rowsPerBatch: defaultRowsPerBatch,
		exited:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log().Info("stream created", "stream", s.name, "workers", pool.NumWorkers(), "queue_depth", cap(s.tasks))
	go s.dispatch()
	return s
}

// NewFromConfig creates a pool and a stream configured by cfg. The caller
// closes both.
func NewFromConfig(cfg config.Config) (*Pool, *Stream) {
	pool := NewPool(cfg.Workers)
	opts := []Option{
		WithQueueDepth(cfg.QueueDepth),
		WithRowsPerBatch(cfg.RowsPerBatch),
	}
	if cfg.Profiling {
		opts = append(opts, WithProfiler(profiler.New(profiler.Options{})))
	}
	return pool, newStream(pool, opts...)
}

// Name returns the stream name.
func (s *Stream) Name() string {
	return s.name
}

// Pool returns the pool the stream executes on.
func (s *Stream) Pool() *Pool {
	return s.pool
}

// RowsPerBatch returns the row batch size kernels use on this stream.
func (s *Stream) RowsPerBatch() int {
	return s.rowsPerBatch
}

// Profiler returns the stream profiler, nil when profiling is off.
func (s *Stream) Profiler() *profiler.Profiler {
	return s.prof
}

func (s *Stream) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.Logger()
}

// Enqueue appends fn to the stream and returns without waiting for it to run.
// Tasks run in enqueue order. Enqueue blocks only while the queue is full.
//
// Arguments:
// - name: Task name for logs, profiling and errors.
// - fn: The work; it receives the pool to spread itself across.
//
// Returns:
// - The Event completing when fn has run.
// - status.ErrRuntime if the stream is closed.
func (s *Stream) Enqueue(name string, fn func(*Pool) error) (*Event, error) {
	if fn == nil {
		return nil, status.Invalidf("nil task %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, status.Runtimef("enqueue %s on closed %s", name, s.name)
	}

	ev := newEvent(name)
	s.last = ev
	s.tasks <- &task{name: name, fn: fn, ev: ev}
	s.log().Debug("task enqueued", "stream", s.name, "task", name)
	return ev, nil
}

// Record enqueues a marker and returns its event, which completes once every
// task enqueued before it has run.
func (s *Stream) Record() (*Event, error) {
	return s.Enqueue("record", func(*Pool) error { return nil })
}

// WaitEvent makes every task enqueued on s after this call wait until ev has
// completed. ev may belong to another stream. An error carried by ev is
// reported by the wait task.
func (s *Stream) WaitEvent(ev *Event) error {
	if ev == nil {
		return status.Invalidf("nil event")
	}
	_, err := s.Enqueue("wait:"+ev.Name(), func(*Pool) error {
		<-ev.Done()
		return ev.err
	})
	return err
}

// Synchronize blocks until every task enqueued so far has run, or ctx is done.
// It returns the first task failure the stream has seen; failures are sticky.
func (s *Stream) Synchronize(ctx context.Context) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last != nil {
		select {
		case <-last.Done():
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "synchronize %s", s.name)
		}
	}
	return s.Err()
}

// Err returns the first task failure seen by the stream.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close stops accepting work, waits for queued tasks to run and returns the
// sticky stream error. Calling Close multiple times is safe.
func (s *Stream) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
	s.mu.Unlock()

	<-s.exited
	return s.Err()
}

func (s *Stream) dispatch() {
	defer close(s.exited)
	for t := range s.tasks {
		s.run(t)
	}
}

func (s *Stream) run(t *task) {
	var stop func()
	if s.prof != nil {
		stop = s.prof.StartOperation(t.name)
	}
	err := s.call(t)
	if stop != nil {
		stop()
	}

	if err != nil {
		s.errMu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.errMu.Unlock()
		s.log().Warn("task failed", "stream", s.name, "task", t.name, "error", err)
	} else {
		s.log().Debug("task complete", "stream", s.name, "task", t.name)
	}
	t.ev.finish(err)
}

func (s *Stream) call(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = status.Runtimef("%s task %s panicked: %v", s.name, t.name, r)
		}
	}()
	if err := t.fn(s.pool); err != nil {
		return errors.Wrapf(err, "%s task %s", s.name, t.name)
	}
	return nil
}
