package driver

import (
	"fmt"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/workflow"
)

// InvalidTransitionError reports a driver operation invoked while the run
// was not in the status its guard requires. It carries the observed
// statuses so callers can see required vs. actual.
type InvalidTransitionError struct {
	// Op is the driver operation whose guard was violated.
	Op string
	// Required describes the guard that failed.
	Required string
	// WorkflowStatus is the observed workflow status.
	WorkflowStatus workflow.Status
	// StateStatus is the observed current state status, when the guard
	// involves one.
	StateStatus workflow.StateStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.StateStatus != "" {
		return fmt.Sprintf("drover: %s requires %s; workflow is %q, current state is %q",
			e.Op, e.Required, e.WorkflowStatus, e.StateStatus)
	}
	return fmt.Sprintf("drover: %s requires %s; workflow is %q", e.Op, e.Required, e.WorkflowStatus)
}

func (e *InvalidTransitionError) Unwrap() error { return drover.ErrInvalidTransition }

// InvalidArgumentsError reports a per-invocation argument list whose length
// does not match the state's base argument list.
type InvalidArgumentsError struct {
	State string
	Want  int
	Got   int
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("drover: state %q requires %d args, received %d", e.State, e.Want, e.Got)
}

func (e *InvalidArgumentsError) Unwrap() error { return drover.ErrInvalidArguments }

// RetryLimitError reports a retry invoked after the state's retry budget
// was exhausted.
type RetryLimitError struct {
	State string
	Limit int
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("drover: state %q cannot be retried more than %d times", e.State, e.Limit)
}

func (e *RetryLimitError) Unwrap() error { return drover.ErrRetryLimit }
