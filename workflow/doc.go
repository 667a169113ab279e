// Package workflow defines the immutable workflow definition graph, the
// mutable run records (Instance and StateInstance), the status model with
// its aggregation rules, the instance store interface, and the definition
// registry.
//
// A Definition is a compiled chain of States, each naming the next state or
// flagging itself terminal. An Instance is one run of a Definition: an
// append-only sequence of StateInstance attempts plus a workflow status.
// The driver package owns all mutation of an Instance.
package workflow
