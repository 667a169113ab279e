// Package middleware provides composable middleware for workflow driver
// operations.
//
// A [Middleware] is a function that wraps a driver operation. Middleware
// are composed into a chain using [Chain] and applied by the engine before
// each operation executes. They are applied right-to-left: the first
// middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs operation name, instance ID, duration, and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — bounds the operation context by the current state's timeout
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-operation duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, op *middleware.Op, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., circuit breaker, rate limiting).
package middleware
