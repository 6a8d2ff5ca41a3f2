package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/ext"
	"github.com/xraph/sendq/limiter"
	"github.com/xraph/sendq/middleware"
	"github.com/xraph/sendq/queue"
)

// Scheduler owns the dispatch loops. It is created once by the manager
// and shared by all groups; per-group state lives on the queues.
type Scheduler struct {
	store      *queue.Store
	sender     sendq.Sender
	extensions *ext.Registry
	chain      middleware.Middleware
	gate       limiter.Gate
	logger     *slog.Logger
	now        func() time.Time

	// baseCtx is the parent of every send context; canceled on Stop
	// when the shutdown deadline passes.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithGate sets a shared rate gate consulted after the local
// inter-request interval has elapsed.
func WithGate(g limiter.Gate) Option {
	return func(s *Scheduler) { s.gate = g }
}

// WithMiddleware sets the middleware chain wrapped around every send.
func WithMiddleware(chain middleware.Middleware) Option {
	return func(s *Scheduler) { s.chain = chain }
}

// WithNow injects the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler dispatching from store through sender.
func New(store *queue.Store, sender sendq.Sender, extensions *ext.Registry, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx, cancelBase := context.WithCancel(context.Background())
	s := &Scheduler{
		store:      store,
		sender:     sender,
		extensions: extensions,
		logger:     logger,
		now:        time.Now,
		baseCtx:    baseCtx,
		cancelBase: cancelBase,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kick starts the dispatch loop for q if none is active. Called after
// every insert; the TryActivate gate guarantees at most one loop per
// queue no matter how many concurrent enqueues race here.
func (s *Scheduler) Kick(q *queue.Queue) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if !q.TryActivate() {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(q)
}

// Stop shuts the scheduler down: no new loops start, running loops exit
// at their next step, and if ctx expires first the in-flight sends are
// canceled. Safe to call more than once.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debug("scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("scheduler shutdown timed out, canceling in-flight sends")
		s.cancelBase()
		<-done
	}
	s.cancelBase()
}

// run is the dispatch loop for one group. It exits when the queue
// drains (idle) or when the scheduler stops.
func (s *Scheduler) run(q *queue.Queue) {
	defer s.wg.Done()

	s.logger.Debug("dispatch loop started", slog.String("group", q.GroupID()))

	for {
		select {
		case <-s.stopCh:
			q.Deactivate()
			return
		default:
		}

		head := q.Head()
		if head == nil {
			if q.DeactivateIfEmpty() {
				s.logger.Debug("dispatch loop idle", slog.String("group", q.GroupID()))
				return
			}
			// An insert raced the empty check; loop to pick it up.
			continue
		}

		// A canceled head is dropped without an attempt. The purge path
		// usually settles it first; Reject is a no-op in that case.
		if head.Canceled() {
			q.Remove(head)
			head.Reject(sendq.ErrCanceled)
			s.extensions.EmitRequestCanceled(s.baseCtx, head)
			continue
		}

		// Wait out the group's inter-request interval, then re-peek:
		// the head may have been purged or displaced while waiting.
		if wait := q.NextAttemptIn(head.RateLimit, s.now()); wait > 0 {
			if !s.sleep(wait) {
				q.Deactivate()
				return
			}
			continue
		}

		if s.gate != nil {
			ok, retryAfter, err := s.gate.Allow(s.baseCtx, head.RateLimit)
			if err != nil {
				// Fail open: the local interval still bounds this
				// process, and a broken shared gate must not wedge
				// the queue.
				s.logger.Warn("rate gate error",
					slog.String("group", q.GroupID()),
					slog.String("error", err.Error()),
				)
			} else if !ok {
				if retryAfter <= 0 {
					retryAfter = 10 * time.Millisecond
				}
				if !s.sleep(retryAfter) {
					q.Deactivate()
					return
				}
				continue
			}
		}

		s.dispatch(q, head)
	}
}

// dispatch hands the head item to the sender and settles it. The item
// stays queued during the attempt and is removed only afterwards, so
// the dispatch clock advances exactly once per attempt.
func (s *Scheduler) dispatch(q *queue.Queue, it *queue.Item) {
	ctx, stop := it.Token.Bind(s.baseCtx)
	defer stop()

	s.extensions.EmitRequestDispatched(ctx, it)

	start := s.now()
	resp, err := s.send(ctx, it.Request)
	elapsed := s.now().Sub(start)

	q.Remove(it)
	q.Stamp(s.now())

	if err != nil {
		if it.Canceled() && errors.Is(err, context.Canceled) {
			it.Reject(sendq.ErrCanceled)
			s.extensions.EmitRequestCanceled(s.baseCtx, it)
			return
		}
		it.Reject(err)
		s.extensions.EmitRequestSettled(s.baseCtx, it, nil, err, elapsed)
		return
	}

	it.Resolve(resp)
	s.extensions.EmitRequestSettled(s.baseCtx, it, resp, nil, elapsed)
}

func (s *Scheduler) send(ctx context.Context, req *sendq.Request) (*sendq.Response, error) {
	if s.chain == nil {
		return s.sender.Send(ctx, req)
	}
	return s.chain(ctx, req, func(ctx context.Context) (*sendq.Response, error) {
		return s.sender.Send(ctx, req)
	})
}

// sleep waits d, returning false if the scheduler stopped first.
func (s *Scheduler) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stopCh:
		return false
	}
}
