package driver

import (
	"context"

	"github.com/droverhq/drover/workflow"
)

// Emitter receives workflow and state lifecycle notifications from the
// driver. Implementations must be fast and must not call back into the
// driver; the driver invokes them synchronously inside its operations.
type Emitter interface {
	EmitWorkflowStarted(ctx context.Context, in *workflow.Instance)
	EmitWorkflowCompleted(ctx context.Context, in *workflow.Instance)
	EmitWorkflowFailed(ctx context.Context, in *workflow.Instance)
	EmitWorkflowCancelled(ctx context.Context, in *workflow.Instance)

	EmitStateStarted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance)
	EmitStateCompleted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance)
	EmitStateFailed(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance)
	EmitStateCancelled(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance)
}

// NopEmitter is an Emitter that does nothing. It is the driver default.
type NopEmitter struct{}

func (NopEmitter) EmitWorkflowStarted(context.Context, *workflow.Instance)   {}
func (NopEmitter) EmitWorkflowCompleted(context.Context, *workflow.Instance) {}
func (NopEmitter) EmitWorkflowFailed(context.Context, *workflow.Instance)    {}
func (NopEmitter) EmitWorkflowCancelled(context.Context, *workflow.Instance) {}

func (NopEmitter) EmitStateStarted(context.Context, *workflow.Instance, *workflow.StateInstance) {}
func (NopEmitter) EmitStateCompleted(context.Context, *workflow.Instance, *workflow.StateInstance) {
}
func (NopEmitter) EmitStateFailed(context.Context, *workflow.Instance, *workflow.StateInstance) {}
func (NopEmitter) EmitStateCancelled(context.Context, *workflow.Instance, *workflow.StateInstance) {
}
