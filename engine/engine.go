package engine

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/cancel"
	"github.com/xraph/sendq/event"
	"github.com/xraph/sendq/ext"
	"github.com/xraph/sendq/id"
	"github.com/xraph/sendq/limiter"
	mw "github.com/xraph/sendq/middleware"
	"github.com/xraph/sendq/observability"
	"github.com/xraph/sendq/queue"
	"github.com/xraph/sendq/scheduler"
)

// Manager is the public façade over the queue core. Callers enqueue
// request descriptions and receive a handle that settles exactly once;
// the Manager owns the cancellation registry, the per-group queues, and
// the scheduler that drains them.
type Manager struct {
	config     sendq.Config
	logger     *slog.Logger
	sender     sendq.Sender
	resolver   sendq.RateLimitResolver
	store      *queue.Store
	tokens     *cancel.Registry
	extensions *ext.Registry
	sched      *scheduler.Scheduler
	bus        *event.Bus
	now        func() time.Time

	// overrides holds per-group MaxRPS values applied on top of
	// whatever the request or resolver supplies, updated live via
	// SetRateLimit and option-change notifications.
	overridesMu sync.RWMutex
	overrides   map[string]float64

	mu       sync.Mutex
	closed   bool
	started  bool
	consumer sync.WaitGroup
	sub      *event.Subscriber

	// option-collected, consumed during New
	extras         []ext.Extension
	mws            []mw.Middleware
	gate           limiter.Gate
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// =============================================================================
// Options
// =============================================================================

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(cfg sendq.Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// WithLogger sets the structured logger. Defaults to a text handler on
// stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithResolver sets the rate-limit resolver consulted for requests that
// carry no explicit rate limit.
func WithResolver(r sendq.RateLimitResolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// WithExtension registers an extension with the Manager's registry.
// May be passed multiple times.
func WithExtension(e ext.Extension) Option {
	return func(m *Manager) { m.extras = append(m.extras, e) }
}

// WithMiddleware appends custom middleware to the default chain.
// May be passed multiple times.
func WithMiddleware(middleware mw.Middleware) Option {
	return func(m *Manager) { m.mws = append(m.mws, middleware) }
}

// WithGate sets a shared rate gate (e.g. limiter.RedisGate) enforced on
// top of the local inter-request interval.
func WithGate(g limiter.Gate) Option {
	return func(m *Manager) { m.gate = g }
}

// WithBus attaches an event bus; Start subscribes the Manager to
// cancellation, scope-ended, and option-change notifications on it.
// The bus remains owned by the caller.
func WithBus(bus *event.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithTracerProvider sets a custom OpenTelemetry tracer provider for
// the tracing middleware. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) { m.tracerProvider = tp }
}

// WithMeterProvider sets a custom OpenTelemetry meter provider for the
// metrics middleware and the observability extension. Defaults to the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Manager) { m.meterProvider = mp }
}

// WithNow injects the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// =============================================================================
// Construction
// =============================================================================

// New creates a Manager dispatching through sender.
func New(sender sendq.Sender, opts ...Option) (*Manager, error) {
	if sender == nil {
		return nil, sendq.ErrNoSender
	}

	m := &Manager{
		config:    sendq.DefaultConfig(),
		sender:    sender,
		store:     queue.NewStore(),
		tokens:    cancel.NewRegistry(),
		now:       time.Now,
		overrides: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	m.extensions = ext.NewRegistry(m.logger)

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if m.tracerProvider != nil {
		tracer := m.tracerProvider.Tracer("github.com/xraph/sendq")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if m.meterProvider != nil {
		meter := m.meterProvider.Meter("github.com/xraph/sendq")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if m.meterProvider != nil {
		meter := m.meterProvider.Meter("github.com/xraph/sendq/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	m.extensions.Register(obsExt)
	for _, e := range m.extras {
		m.extensions.Register(e)
	}

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	chain := []mw.Middleware{
		mw.Recover(m.logger),
		tracingMw,
		metricsMw,
		mw.Logging(m.logger),
		mw.Timeout(m.logger),
	}
	chain = append(chain, m.mws...)

	schedOpts := []scheduler.Option{
		scheduler.WithMiddleware(mw.Chain(chain...)),
		scheduler.WithNow(m.now),
	}
	if m.gate != nil {
		schedOpts = append(schedOpts, scheduler.WithGate(m.gate))
	}
	m.sched = scheduler.New(m.store, m.sender, m.extensions, m.logger, schedOpts...)

	return m, nil
}

// =============================================================================
// Enqueue
// =============================================================================

// Enqueue resolves the request's rate limit, priority, and cancellation
// key, inserts it into its group's queue, and kicks the group's
// dispatch loop. The returned item settles exactly once; callers
// observe the outcome via its Wait method.
func (m *Manager) Enqueue(ctx context.Context, req *sendq.Request, scope string) (*queue.Item, error) {
	// Held through the insert: an item must never slip in between
	// Close's closed check and its final drain, or its Wait would hang.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, sendq.ErrClosed
	}

	rl, err := m.resolveRateLimit(req)
	if err != nil {
		return nil, err
	}
	if req.ID.IsNil() {
		req.ID = id.NewRequestID()
	}

	key := m.composeKey(scope, req.Key)
	tok := m.tokens.GetOrCreate(key)

	it := queue.NewItem(req, rl, req.Priority, scope, key, tok, m.now())
	q := m.store.Resolve(rl.ID)
	q.Insert(it)
	m.extensions.EmitRequestEnqueued(ctx, it)

	m.logger.Debug("request enqueued",
		slog.String("request_id", req.ID.String()),
		slog.String("group", rl.ID),
		slog.String("priority", req.Priority.String()),
		slog.String("key", key),
	)

	m.sched.Kick(q)
	return it, nil
}

// Do enqueues req and blocks until it settles or ctx expires.
func (m *Manager) Do(ctx context.Context, req *sendq.Request, scope string) (*sendq.Response, error) {
	it, err := m.Enqueue(ctx, req, scope)
	if err != nil {
		return nil, err
	}
	return it.Wait(ctx)
}

// resolveRateLimit picks the request's rate limit in precedence order:
// explicit on the request, resolver, configured default. Live MaxRPS
// overrides apply to whichever source won.
func (m *Manager) resolveRateLimit(req *sendq.Request) (sendq.RateLimit, error) {
	var rl sendq.RateLimit
	switch {
	case req.RateLimit != nil:
		rl = *req.RateLimit
	case m.resolver != nil:
		if resolved, ok := m.resolver.Resolve(req); ok {
			rl = resolved
			break
		}
		fallthrough
	default:
		if m.config.DefaultRateLimit.ID == "" {
			return sendq.RateLimit{}, sendq.ErrNoRateLimit
		}
		rl = m.config.DefaultRateLimit
	}

	m.overridesMu.RLock()
	if rps, ok := m.overrides[rl.ID]; ok {
		rl.MaxRPS = rps
	}
	m.overridesMu.RUnlock()

	if err := rl.Validate(); err != nil {
		return sendq.RateLimit{}, err
	}
	return rl, nil
}

// composeKey joins the scope and sub-key into the cancellation key.
// Scope-wide cancellation relies on this shape: CancelByScope triggers
// every token whose key starts with scope + "/".
func (m *Manager) composeKey(scope, key string) string {
	if key == "" {
		key = m.config.DefaultKey
	}
	return scope + "/" + key
}

// =============================================================================
// Cancellation
// =============================================================================

// CancelByKey triggers cancellation for the composed scope/key and
// settles every still-queued item under it with ErrCanceled. A key with
// no live token is a silent no-op.
func (m *Manager) CancelByKey(scope, key string) {
	composed := m.composeKey(scope, key)
	if !m.tokens.Trigger(composed) {
		return
	}
	m.logger.Debug("cancellation triggered", slog.String("key", composed))
	m.purgeCanceled()
}

// CancelByScope triggers cancellation for every key under scope and
// settles the affected queued items with ErrCanceled.
func (m *Manager) CancelByScope(scope string) {
	n := m.tokens.TriggerPrefix(scope + "/")
	if n == 0 {
		return
	}
	m.logger.Debug("scope canceled",
		slog.String("scope", scope),
		slog.Int("tokens", n),
	)
	m.purgeCanceled()
}

// purgeCanceled removes canceled items from every queue and settles
// them. Settlement is idempotent, so racing the scheduler's own
// canceled-head check is harmless.
func (m *Manager) purgeCanceled() {
	for _, it := range m.store.PurgeCanceled() {
		it.Reject(sendq.ErrCanceled)
		m.extensions.EmitRequestCanceled(context.Background(), it)
	}
}

// =============================================================================
// Rate-Limit Overrides
// =============================================================================

// SetRateLimit overrides the MaxRPS for a group. Queued items keep the
// rate they were enqueued with; the override applies to subsequent
// enqueues.
func (m *Manager) SetRateLimit(groupID string, maxRPS float64) error {
	rl := sendq.RateLimit{ID: groupID, MaxRPS: maxRPS}
	if err := rl.Validate(); err != nil {
		return err
	}
	m.overridesMu.Lock()
	m.overrides[groupID] = maxRPS
	m.overridesMu.Unlock()
	m.logger.Info("rate limit updated",
		slog.String("group", groupID),
		slog.Float64("max_rps", maxRPS),
	)
	return nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start subscribes the Manager to its event bus, reacting to external
// cancellation, scope-ended, and option-change notifications. A no-op
// without a bus. Idempotent.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed || m.bus == nil {
		return
	}
	m.started = true
	m.sub = m.bus.Subscribe(event.TypeCancelRequests, event.TypeScopeEnded, event.TypeOptionChanged)
	m.consumer.Add(1)
	go m.consume(m.sub)
}

func (m *Manager) consume(sub *event.Subscriber) {
	defer m.consumer.Done()
	for n := range sub.C() {
		switch n.Type {
		case event.TypeCancelRequests:
			m.CancelByKey(n.Scope, n.Key)
		case event.TypeScopeEnded:
			m.CancelByScope(n.Scope)
		case event.TypeOptionChanged:
			if err := m.SetRateLimit(n.Option, n.Value); err != nil {
				m.logger.Warn("ignoring rate-limit notification",
					slog.String("group", n.Option),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Close shuts the Manager down: enqueues are rejected with ErrClosed,
// the bus subscription ends, dispatch loops stop (in-flight sends get
// the configured shutdown grace), and every still-queued item settles
// with ErrClosed.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		m.bus.Unsubscribe(sub.ID())
		m.consumer.Wait()
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && m.config.ShutdownTimeout > 0 {
		var cancelFn context.CancelFunc
		ctx, cancelFn = context.WithTimeout(ctx, m.config.ShutdownTimeout)
		defer cancelFn()
	}
	m.sched.Stop(ctx)

	// Loops are gone; whatever is still queued will never dispatch.
	for _, q := range m.store.All() {
		for _, it := range q.Drain() {
			it.Reject(sendq.ErrClosed)
		}
	}

	m.extensions.EmitShutdown(context.Background())
	m.logger.Info("manager closed")
	return nil
}

// Extensions returns the Manager's extension registry.
func (m *Manager) Extensions() *ext.Registry { return m.extensions }

// Tokens returns the cancellation registry, mainly for senders that
// need to resolve a token outside the queue path.
func (m *Manager) Tokens() *cancel.Registry { return m.tokens }

