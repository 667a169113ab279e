package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/backoff"
	"github.com/droverhq/drover/driver"
	"github.com/droverhq/drover/id"
	mw "github.com/droverhq/drover/middleware"
	"github.com/droverhq/drover/workflow"
)

// scopeName is the instrumentation scope for engine-built middleware.
const scopeName = "github.com/droverhq/drover"

// Engine coordinates workflow runs across their whole lifetime. It owns
// the definition registry, rebuilds a driver per operation from the
// store, serializes operations per instance, and checkpoints the run
// record after every mutating operation.
type Engine struct {
	svc      backend.Service
	store    workflow.Store
	registry *workflow.Registry
	emitter  driver.Emitter
	bo       backoff.Strategy
	chain    mw.Middleware
	mws      []mw.Middleware
	logger   *slog.Logger

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = l
	}
}

// WithEmitter sets the lifecycle emitter passed to every driver.
func WithEmitter(e driver.Emitter) Option {
	return func(eng *Engine) {
		eng.emitter = e
	}
}

// WithMiddleware adds middleware to the engine's chain, after the
// built-in stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithBackoff sets the polling delay strategy used by Wait.
// If not set, backoff.DefaultStrategy() is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, the metrics middleware uses this provider instead of the
// global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// New creates an Engine on the given backend and store.
func New(svc backend.Service, store workflow.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, drover.ErrNoStore
	}
	if svc == nil {
		return nil, fmt.Errorf("drover/engine: backend service is required")
	}

	eng := &Engine{
		svc:      svc,
		store:    store,
		registry: workflow.NewRegistry(),
		emitter:  driver.NopEmitter{},
		logger:   slog.Default(),
		locks:    make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(scopeName))
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(scopeName))
	} else {
		metricsMw = mw.Metrics()
	}

	// Default stack: recover → tracing → metrics → logging, then any
	// user middleware.
	allMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
	}
	allMws = append(allMws, eng.mws...)
	eng.chain = mw.Chain(allMws...)

	return eng, nil
}

// Registry returns the engine's definition registry.
func (eng *Engine) Registry() *workflow.Registry { return eng.registry }

// Store returns the engine's instance store.
func (eng *Engine) Store() workflow.Store { return eng.store }

// RegisterWorkflow validates and registers a workflow definition.
func (eng *Engine) RegisterWorkflow(def *workflow.Definition) error {
	if err := eng.registry.Register(def); err != nil {
		return err
	}
	eng.logger.Info("workflow registered", slog.String("workflow", def.Name))
	return nil
}

// StartRun creates a new instance of the named workflow and executes its
// starting state. The instance is persisted before and after execution.
func (eng *Engine) StartRun(ctx context.Context, workflowName string) (*workflow.Instance, error) {
	def, ok := eng.registry.Get(workflowName)
	if !ok {
		return nil, fmt.Errorf("drover/engine: workflow %q: %w", workflowName, drover.ErrDefinitionNotFound)
	}

	drv, err := driver.New(ctx, eng.svc, eng.store, def,
		driver.WithLogger(eng.logger),
		driver.WithEmitter(eng.emitter),
	)
	if err != nil {
		return nil, err
	}

	op := &mw.Op{Name: "start", Instance: drv.Instance()}
	err = eng.chain(ctx, op, func(ctx context.Context) error {
		if startErr := drv.Start(ctx); startErr != nil {
			return startErr
		}
		return drv.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	return drv.Instance(), nil
}

// Advance moves a run forward by one state. Optional per-invocation
// argument overrides are appended to the next state's base arguments.
func (eng *Engine) Advance(ctx context.Context, instanceID id.InstanceID, args []string) (*workflow.Instance, error) {
	return eng.mutate(ctx, "next", instanceID, func(ctx context.Context, drv *driver.Driver) error {
		return drv.Next(ctx, args)
	})
}

// Retry re-executes a run's current state after failure or cancellation.
func (eng *Engine) Retry(ctx context.Context, instanceID id.InstanceID, args []string) (*workflow.Instance, error) {
	return eng.mutate(ctx, "retry", instanceID, func(ctx context.Context, drv *driver.Driver) error {
		return drv.Retry(ctx, args)
	})
}

// CancelState cancels a run's current state attempt and stops its
// containers.
func (eng *Engine) CancelState(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	return eng.mutate(ctx, "cancel_state", instanceID, func(ctx context.Context, drv *driver.Driver) error {
		return drv.CancelState(ctx)
	})
}

// CancelWorkflow cancels a run's current state attempt and the run
// itself.
func (eng *Engine) CancelWorkflow(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	return eng.mutate(ctx, "cancel_workflow", instanceID, func(ctx context.Context, drv *driver.Driver) error {
		return drv.CancelWorkflow(ctx)
	})
}

// GetStatus pulls container status from the backend into the run record
// and persists the refreshed record.
func (eng *Engine) GetStatus(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	return eng.mutate(ctx, "status", instanceID, func(ctx context.Context, drv *driver.Driver) error {
		_, err := drv.GetStatus(ctx)
		return err
	})
}

// ListRuns returns persisted runs matching the given options.
func (eng *Engine) ListRuns(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Instance, error) {
	return eng.store.ListInstances(ctx, opts)
}

// Wait polls the run until its workflow status is terminal or its
// current state attempt has settled (completed, failed, or cancelled).
// The delay between polls follows the engine's backoff strategy. Wait
// returns the last observed record; the caller decides whether to
// advance, retry, or stop.
func (eng *Engine) Wait(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	for attempt := 1; ; attempt++ {
		in, err := eng.GetStatus(ctx, instanceID)
		if err != nil {
			return nil, err
		}

		if in.Status.Terminal() {
			return in, nil
		}
		if cur := in.Current(); cur != nil && cur.Status != workflow.StateStarted {
			return in, nil
		}

		delay := eng.bo.Delay(attempt)
		eng.logger.Debug("waiting for state to settle",
			slog.String("instance_id", instanceID.String()),
			slog.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// mutate runs one driver operation under the instance's lock and
// persists the record afterwards.
func (eng *Engine) mutate(ctx context.Context, opName string, instanceID id.InstanceID, fn func(context.Context, *driver.Driver) error) (*workflow.Instance, error) {
	lock := eng.lockFor(instanceID)
	lock.Lock()
	defer lock.Unlock()

	drv, err := driver.Resume(ctx, eng.svc, eng.store, instanceID,
		driver.WithLogger(eng.logger),
		driver.WithEmitter(eng.emitter),
	)
	if err != nil {
		return nil, err
	}

	op := &mw.Op{Name: opName, Instance: drv.Instance()}
	err = eng.chain(ctx, op, func(ctx context.Context) error {
		if opErr := fn(ctx, drv); opErr != nil {
			return opErr
		}
		return drv.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	return drv.Instance(), nil
}

// lockFor returns the mutex serializing operations on one instance.
func (eng *Engine) lockFor(instanceID id.InstanceID) *sync.Mutex {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	key := instanceID.String()
	l, ok := eng.locks[key]
	if !ok {
		l = &sync.Mutex{}
		eng.locks[key] = l
	}
	return l
}
