// Package driver implements the single-run workflow state machine. One
// Driver owns exactly one workflow.Instance for the lifetime of a run and
// mediates between the definition graph, the status model, and the
// container backend.
//
// Every operation is synchronous and runs to completion; the driver has no
// internal parallelism and never polls on a timer. Status is pulled from
// the backend only inside GetStatus. Concurrent calls on the same Driver
// are undefined — callers serialize (the engine package does this with one
// lock per instance).
//
// Guards are checked before any mutation or backend call. A violated guard
// returns an *InvalidTransitionError naming the operation, the guard, and
// the observed statuses, and leaves the run record untouched.
package driver
