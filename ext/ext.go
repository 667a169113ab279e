// Package ext defines the extension system for drover. Extensions are
// notified of workflow and state lifecycle events and can react to them
// for metrics, auditing, notifications, and similar concerns.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"

	"github.com/droverhq/drover/workflow"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// WorkflowStarted is called after a run's first state executes.
type WorkflowStarted interface {
	OnWorkflowStarted(ctx context.Context, in *workflow.Instance) error
}

// WorkflowCompleted is called when a run passes its terminal state.
type WorkflowCompleted interface {
	OnWorkflowCompleted(ctx context.Context, in *workflow.Instance) error
}

// WorkflowFailed is called when a status refresh observes a failed state.
type WorkflowFailed interface {
	OnWorkflowFailed(ctx context.Context, in *workflow.Instance) error
}

// WorkflowCancelled is called when a run is explicitly cancelled.
type WorkflowCancelled interface {
	OnWorkflowCancelled(ctx context.Context, in *workflow.Instance) error
}

// StateStarted is called after a state attempt's containers launch.
type StateStarted interface {
	OnStateStarted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error
}

// StateCompleted is called when a status refresh observes all of an
// attempt's containers completed.
type StateCompleted interface {
	OnStateCompleted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error
}

// StateFailed is called when a status refresh observes a failed container.
type StateFailed interface {
	OnStateFailed(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error
}

// StateCancelled is called when a state attempt is explicitly cancelled.
type StateCancelled interface {
	OnStateCancelled(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error
}
