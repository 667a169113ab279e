// Package drover drives execution of declaratively defined multi-step
// workflows whose steps are containerized jobs. Each workflow state launches
// one or more containers through an external execution backend; the driver
// advances to the next state only after the current state's containers
// finish.
//
// Drover is a library, not a service. Supply a backend.Service, an instance
// store, and a compiled workflow.Definition, then step the run forward
// explicitly:
//
//	drv, err := driver.New(ctx, svc, store, def)
//	...
//	drv.Start(ctx)
//	drv.GetStatus(ctx) // pull container status into the run record
//	drv.Next(ctx, nil) // advance once the current state completed
//
// # Architecture
//
// The workflow package holds the immutable definition graph, the mutable run
// records, and the status aggregation rules. The driver package owns the
// single-run state machine. The engine package sits above both and manages
// many runs with per-instance serialization, middleware, and persistence
// after every mutating call.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package drover
