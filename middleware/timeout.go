package middleware

import (
	"context"
	"log/slog"
)

// Timeout returns middleware that bounds the operation context by the
// current state's timeout. States with a zero timeout are unbounded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *Op, next Handler) error {
		cur := op.Instance.Current()
		if cur == nil {
			return next(ctx)
		}
		st, ok := op.Instance.Workflow.StateNamed(cur.StateName)
		if !ok || st.Timeout <= 0 {
			return next(ctx)
		}

		logger.Debug("operation timeout set",
			slog.String("instance_id", op.Instance.ID.String()),
			slog.Duration("timeout", st.Timeout),
		)
		ctx, cancel := context.WithTimeout(ctx, st.Timeout)
		defer cancel()
		return next(ctx)
	}
}
