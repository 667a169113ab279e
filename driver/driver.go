package driver

import (
	"context"
	"log/slog"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

// Driver executes one workflow run. It owns the run's Instance record
// exclusively and is the only component that mutates it.
type Driver struct {
	svc     backend.Service
	store   workflow.Store
	inst    *workflow.Instance
	emitter Emitter
	logger  *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the structured logger for the driver.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithEmitter sets the lifecycle emitter for the driver.
func WithEmitter(e Emitter) Option {
	return func(d *Driver) { d.emitter = e }
}

// New creates a driver for a fresh run of def. The new Instance starts in
// the created status with no state attempts and is persisted through the
// store before New returns. The store is required; the definition is
// validated here so a malformed graph never reaches execution.
func New(ctx context.Context, svc backend.Service, store workflow.Store, def *workflow.Definition, opts ...Option) (*Driver, error) {
	if store == nil {
		return nil, drover.ErrNoStore
	}
	if def == nil {
		return nil, drover.ErrNoDefinition
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	d := newDriver(svc, store, workflow.NewInstance(def), opts)

	if err := store.CreateInstance(ctx, d.inst); err != nil {
		return nil, err
	}

	d.logger.Info("workflow instance created",
		slog.String("instance_id", d.inst.ID.String()),
		slog.String("workflow", def.Name),
	)
	return d, nil
}

// Resume creates a driver for an existing run read from the store.
func Resume(ctx context.Context, svc backend.Service, store workflow.Store, instanceID id.InstanceID, opts ...Option) (*Driver, error) {
	if store == nil {
		return nil, drover.ErrNoStore
	}

	inst, err := store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return newDriver(svc, store, inst, opts), nil
}

func newDriver(svc backend.Service, store workflow.Store, inst *workflow.Instance, opts []Option) *Driver {
	d := &Driver{
		svc:     svc,
		store:   store,
		inst:    inst,
		emitter: NopEmitter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Instance returns the run record the driver owns.
func (d *Driver) Instance() *workflow.Instance { return d.inst }

// Save persists the current run record through the store. The driver never
// auto-persists after mutating operations; callers decide their checkpoint
// discipline and call Save at the points they want durable.
func (d *Driver) Save(ctx context.Context) error {
	return d.store.UpdateInstance(ctx, d.inst)
}

// Start executes the definition's starting state. The run must still be in
// the created status. On success the workflow moves to started.
func (d *Driver) Start(ctx context.Context) error {
	if d.inst.Status != workflow.StatusCreated {
		return &InvalidTransitionError{
			Op:             "start",
			Required:       "workflow status created",
			WorkflowStatus: d.inst.Status,
		}
	}

	if err := d.runState(ctx, d.inst.Workflow.Start(), nil); err != nil {
		return err
	}

	if d.inst.Status == workflow.StatusCreated {
		d.inst.Status = workflow.StatusStarted
		d.inst.Touch()
	}
	d.emitter.EmitWorkflowStarted(ctx, d.inst)
	return nil
}

// Next advances the run by one state. The workflow must be started and the
// current attempt completed. When the current state is terminal the run is
// marked completed and nothing is executed; otherwise the next state is
// run with the optional per-invocation argument overrides.
func (d *Driver) Next(ctx context.Context, args []string) error {
	cur := d.inst.Current()
	if cur == nil {
		return drover.ErrNoStateStarted
	}

	if d.inst.Status != workflow.StatusStarted || cur.Status != workflow.StateCompleted {
		return &InvalidTransitionError{
			Op:             "next",
			Required:       "workflow status started and current state completed",
			WorkflowStatus: d.inst.Status,
			StateStatus:    cur.Status,
		}
	}

	st, ok := d.inst.Workflow.StateNamed(cur.StateName)
	if !ok {
		return drover.ErrDefinitionNotFound
	}

	if st.End {
		d.inst.Status = workflow.StatusCompleted
		d.inst.Touch()
		d.logger.Info("terminal state completed, marking workflow completed",
			slog.String("instance_id", d.inst.ID.String()),
			slog.String("state", st.Name),
		)
		d.emitter.EmitWorkflowCompleted(ctx, d.inst)
		return nil
	}

	next, _ := d.inst.Workflow.StateNamed(st.Next)
	return d.runState(ctx, next, args)
}

// GetStatus refreshes the run record from the backend and returns it.
// This is the only place container status is pulled into the model. Runs
// that are created or completed, and runs whose current attempt was
// cancelled, are returned unchanged without a backend call.
func (d *Driver) GetStatus(ctx context.Context) (*workflow.Instance, error) {
	if d.inst.Status == workflow.StatusCreated || d.inst.Status == workflow.StatusCompleted {
		return d.inst, nil
	}

	cur := d.inst.Current()
	if cur == nil {
		return nil, drover.ErrNoStateStarted
	}
	if cur.Status == workflow.StateCancelled {
		return d.inst, nil
	}

	containers, err := d.svc.GetContainers(ctx, cur.ContainerIDs())
	if err != nil {
		return nil, err
	}

	prev := cur.Status
	cur.Containers = containers
	cur.Status = workflow.AggregateStateStatus(containers)
	cur.Touch()

	d.inst.Status = workflow.DeriveStatus(d.inst.Status, cur.Status)
	d.inst.Touch()

	if cur.Status != prev {
		switch cur.Status {
		case workflow.StateCompleted:
			d.emitter.EmitStateCompleted(ctx, d.inst, cur)
		case workflow.StateFailed:
			d.emitter.EmitStateFailed(ctx, d.inst, cur)
			d.emitter.EmitWorkflowFailed(ctx, d.inst)
		}
	}

	return d.inst, nil
}

// CancelState cancels the current attempt and stops its containers. The
// workflow must be started and the current attempt still running.
func (d *Driver) CancelState(ctx context.Context) error {
	if d.inst.Status != workflow.StatusStarted {
		return &InvalidTransitionError{
			Op:             "cancel state",
			Required:       "workflow status started",
			WorkflowStatus: d.inst.Status,
		}
	}

	cur := d.inst.Current()
	if cur == nil {
		return drover.ErrNoStateStarted
	}
	if cur.Status != workflow.StateStarted {
		return &InvalidTransitionError{
			Op:             "cancel state",
			Required:       "current state started",
			WorkflowStatus: d.inst.Status,
			StateStatus:    cur.Status,
		}
	}

	cur.Status = workflow.StateCancelled
	cur.Touch()

	if err := d.svc.StopContainers(ctx, cur.ContainerIDs()); err != nil {
		return err
	}

	d.logger.Info("state cancelled",
		slog.String("instance_id", d.inst.ID.String()),
		slog.String("state", cur.StateName),
	)
	d.emitter.EmitStateCancelled(ctx, d.inst, cur)
	return nil
}

// CancelWorkflow cancels the current attempt and then the whole run. The
// state-level guard is not bypassed: when CancelState fails, its error
// propagates and the workflow status is left unchanged.
func (d *Driver) CancelWorkflow(ctx context.Context) error {
	if err := d.CancelState(ctx); err != nil {
		return err
	}

	d.inst.Status = workflow.StatusCancelled
	d.inst.Touch()
	d.emitter.EmitWorkflowCancelled(ctx, d.inst)
	return nil
}

// Retry re-executes the current state after a failure or cancellation,
// appending a fresh attempt. The prior attempt keeps its failed or
// cancelled status. The workflow must have started and must not be
// cancelled or completed, and the attempt's retry number must be below the
// state's retry budget. When the current attempt is neither failed nor
// cancelled the call does nothing.
func (d *Driver) Retry(ctx context.Context, args []string) error {
	switch d.inst.Status {
	case workflow.StatusCreated, workflow.StatusCancelled, workflow.StatusCompleted:
		return &InvalidTransitionError{
			Op:             "retry",
			Required:       "workflow status started or failed",
			WorkflowStatus: d.inst.Status,
		}
	}

	cur := d.inst.Current()
	if cur == nil {
		return drover.ErrNoStateStarted
	}

	st, ok := d.inst.Workflow.StateNamed(cur.StateName)
	if !ok {
		return drover.ErrDefinitionNotFound
	}

	if cur.RetryNum >= st.RetryCount {
		return &RetryLimitError{State: st.Name, Limit: st.RetryCount}
	}

	if cur.Status != workflow.StateFailed && cur.Status != workflow.StateCancelled {
		d.logger.Debug("retry ignored, current state neither failed nor cancelled",
			slog.String("instance_id", d.inst.ID.String()),
			slog.String("state", cur.StateName),
			slog.String("state_status", string(cur.Status)),
		)
		return nil
	}

	return d.runState(ctx, st, args)
}

// IsCompleted reports whether the run reached the completed status.
func (d *Driver) IsCompleted() bool {
	return d.inst.Status == workflow.StatusCompleted
}

// CurrentStateInstance returns the most recent state attempt.
func (d *Driver) CurrentStateInstance() (*workflow.StateInstance, error) {
	cur := d.inst.Current()
	if cur == nil {
		return nil, drover.ErrNoStateStarted
	}
	return cur, nil
}

// CurrentRetryNum returns the retry number of the most recent attempt.
func (d *Driver) CurrentRetryNum() (int, error) {
	cur, err := d.CurrentStateInstance()
	if err != nil {
		return 0, err
	}
	return cur.RetryNum, nil
}
