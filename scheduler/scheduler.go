// Package scheduler serializes outbound network calls behind a single
// rate-limited queue.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/altheadev/mediagate"
)

// DefaultInterval is the minimum gap between one task settling and the next
// one starting. 700ms stays comfortably under an upstream ceiling of roughly
// 90 calls per minute.
const DefaultInterval = 700 * time.Millisecond

type task struct {
	ctx  context.Context
	op   mediagate.Operation
	done chan result
}

type result struct {
	value any
	err   error
}

// Scheduler runs submitted operations strictly one at a time, in submission
// order, with a minimum delay between tasks charged from the moment the
// previous task settles regardless of how long it ran. A failing task
// settles its own caller only; the queue moves on after the standard delay.
type Scheduler struct {
	interval time.Duration
	onBusy   func(bool)
	logger   mediagate.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	pending int
	closed  bool

	// lastSettle is touched only by the worker goroutine.
	lastSettle time.Time

	done chan struct{}
}

var _ mediagate.Scheduler = (*Scheduler)(nil)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval overrides the minimum inter-task delay.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnBusy registers a callback fired on busy/idle transitions: true when
// the first task enters an empty scheduler, false when the last one settles.
// The scheduler always computes transitions; whether anything is shown to
// the user is the callback's concern (see Indicator).
func WithOnBusy(fn func(bool)) SchedulerOption {
	return func(s *Scheduler) {
		s.onBusy = fn
	}
}

// WithLogger sets the Logger used by the scheduler.
func WithLogger(l mediagate.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scheduler and starts its worker goroutine.
func New(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		interval: DefaultInterval,
		logger:   mediagate.NewDefaultLogger(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cond = sync.NewCond(&s.mu)

	go s.run()
	return s
}

// Do enqueues op and blocks until it settles. Tasks start strictly in
// submission order; no task starts before the previous one has fully
// settled plus the configured delay.
//
// There is no cancellation: once submitted the operation will run. If ctx
// expires while waiting, Do returns ctx.Err() and the eventual result is
// discarded (the settle channel is buffered, so an abandoned task cannot
// wedge the worker).
func (s *Scheduler) Do(ctx context.Context, op mediagate.Operation) (any, error) {
	t := &task{ctx: ctx, op: op, done: make(chan result, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, mediagate.ErrSchedulerClosed
	}
	s.pending++
	wasIdle := s.pending == 1
	s.queue = append(s.queue, t)
	s.cond.Signal()
	s.mu.Unlock()

	if wasIdle {
		s.notifyBusy(true)
	}

	select {
	case res := <-t.done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close rejects further submissions, lets already queued tasks drain, then
// stops the worker. It blocks until the worker has exited.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done
	return nil
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		// The delay is charged from the previous settle, regardless of how
		// long that task itself took.
		if !s.lastSettle.IsZero() {
			if wait := s.interval - time.Since(s.lastSettle); wait > 0 {
				time.Sleep(wait)
			}
		}

		value, err := t.op(t.ctx)
		s.lastSettle = time.Now()
		if err != nil {
			s.logger.Debug("scheduled operation failed", "error", err)
		}
		t.done <- result{value: value, err: err}

		s.mu.Lock()
		s.pending--
		idle := s.pending == 0
		s.mu.Unlock()

		if idle {
			s.notifyBusy(false)
		}
	}
}

func (s *Scheduler) notifyBusy(busy bool) {
	if s.onBusy != nil {
		s.onBusy(busy)
	}
}
