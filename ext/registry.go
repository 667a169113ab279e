package ext

import (
	"context"
	"log/slog"

	"github.com/droverhq/drover/driver"
	"github.com/droverhq/drover/workflow"
)

// The Registry is handed to drivers as their Emitter.
var _ driver.Emitter = (*Registry)(nil)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type workflowStartedEntry struct {
	name string
	hook WorkflowStarted
}

type workflowCompletedEntry struct {
	name string
	hook WorkflowCompleted
}

type workflowFailedEntry struct {
	name string
	hook WorkflowFailed
}

type workflowCancelledEntry struct {
	name string
	hook WorkflowCancelled
}

type stateStartedEntry struct {
	name string
	hook StateStarted
}

type stateCompletedEntry struct {
	name string
	hook StateCompleted
}

type stateFailedEntry struct {
	name string
	hook StateFailed
}

type stateCancelledEntry struct {
	name string
	hook StateCancelled
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It implements driver.Emitter, so it plugs directly into a
// driver or engine. It type-caches extensions at registration time so
// emit calls iterate only over extensions that implement the relevant
// hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	workflowStarted   []workflowStartedEntry
	workflowCompleted []workflowCompletedEntry
	workflowFailed    []workflowFailedEntry
	workflowCancelled []workflowCancelledEntry
	stateStarted      []stateStartedEntry
	stateCompleted    []stateCompletedEntry
	stateFailed       []stateFailedEntry
	stateCancelled    []stateCancelledEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(WorkflowStarted); ok {
		r.workflowStarted = append(r.workflowStarted, workflowStartedEntry{name, h})
	}
	if h, ok := e.(WorkflowCompleted); ok {
		r.workflowCompleted = append(r.workflowCompleted, workflowCompletedEntry{name, h})
	}
	if h, ok := e.(WorkflowFailed); ok {
		r.workflowFailed = append(r.workflowFailed, workflowFailedEntry{name, h})
	}
	if h, ok := e.(WorkflowCancelled); ok {
		r.workflowCancelled = append(r.workflowCancelled, workflowCancelledEntry{name, h})
	}
	if h, ok := e.(StateStarted); ok {
		r.stateStarted = append(r.stateStarted, stateStartedEntry{name, h})
	}
	if h, ok := e.(StateCompleted); ok {
		r.stateCompleted = append(r.stateCompleted, stateCompletedEntry{name, h})
	}
	if h, ok := e.(StateFailed); ok {
		r.stateFailed = append(r.stateFailed, stateFailedEntry{name, h})
	}
	if h, ok := e.(StateCancelled); ok {
		r.stateCancelled = append(r.stateCancelled, stateCancelledEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitWorkflowStarted notifies all extensions that implement WorkflowStarted.
func (r *Registry) EmitWorkflowStarted(ctx context.Context, in *workflow.Instance) {
	for _, e := range r.workflowStarted {
		if err := e.hook.OnWorkflowStarted(ctx, in); err != nil {
			r.logHookError("OnWorkflowStarted", e.name, err)
		}
	}
}

// EmitWorkflowCompleted notifies all extensions that implement WorkflowCompleted.
func (r *Registry) EmitWorkflowCompleted(ctx context.Context, in *workflow.Instance) {
	for _, e := range r.workflowCompleted {
		if err := e.hook.OnWorkflowCompleted(ctx, in); err != nil {
			r.logHookError("OnWorkflowCompleted", e.name, err)
		}
	}
}

// EmitWorkflowFailed notifies all extensions that implement WorkflowFailed.
func (r *Registry) EmitWorkflowFailed(ctx context.Context, in *workflow.Instance) {
	for _, e := range r.workflowFailed {
		if err := e.hook.OnWorkflowFailed(ctx, in); err != nil {
			r.logHookError("OnWorkflowFailed", e.name, err)
		}
	}
}

// EmitWorkflowCancelled notifies all extensions that implement WorkflowCancelled.
func (r *Registry) EmitWorkflowCancelled(ctx context.Context, in *workflow.Instance) {
	for _, e := range r.workflowCancelled {
		if err := e.hook.OnWorkflowCancelled(ctx, in); err != nil {
			r.logHookError("OnWorkflowCancelled", e.name, err)
		}
	}
}

// EmitStateStarted notifies all extensions that implement StateStarted.
func (r *Registry) EmitStateStarted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) {
	for _, e := range r.stateStarted {
		if err := e.hook.OnStateStarted(ctx, in, si); err != nil {
			r.logHookError("OnStateStarted", e.name, err)
		}
	}
}

// EmitStateCompleted notifies all extensions that implement StateCompleted.
func (r *Registry) EmitStateCompleted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) {
	for _, e := range r.stateCompleted {
		if err := e.hook.OnStateCompleted(ctx, in, si); err != nil {
			r.logHookError("OnStateCompleted", e.name, err)
		}
	}
}

// EmitStateFailed notifies all extensions that implement StateFailed.
func (r *Registry) EmitStateFailed(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) {
	for _, e := range r.stateFailed {
		if err := e.hook.OnStateFailed(ctx, in, si); err != nil {
			r.logHookError("OnStateFailed", e.name, err)
		}
	}
}

// EmitStateCancelled notifies all extensions that implement StateCancelled.
func (r *Registry) EmitStateCancelled(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) {
	for _, e := range r.stateCancelled {
		if err := e.hook.OnStateCancelled(ctx, in, si); err != nil {
			r.logHookError("OnStateCancelled", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the run.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
