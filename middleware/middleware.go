package middleware

import (
	"context"

	"github.com/droverhq/drover/workflow"
)

// Op describes a single driver operation flowing through the chain.
type Op struct {
	// Name is the operation name: "start", "next", "status", "retry",
	// "cancel_state", "cancel_workflow".
	Name string
	// Instance is the workflow instance the operation acts on.
	Instance *workflow.Instance
}

// Handler is the terminal function that executes the driver operation.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the operation being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, op *Op, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, op *Op, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, op, prev)
			}
		}
		return h(ctx)
	}
}
