package workflow

import "github.com/droverhq/drover/backend"

// AggregateStateStatus folds the reported container statuses of one state
// attempt into a StateStatus. Any failed container forces StateFailed so a
// partial failure is never masked; started and unknown containers count as
// still running; otherwise every container completed.
func AggregateStateStatus(containers []*backend.Container) StateStatus {
	running := false
	for _, c := range containers {
		switch c.Status {
		case backend.StatusFailed:
			return StateFailed
		case backend.StatusStarted, backend.StatusUnknown:
			running = true
		}
	}
	if running {
		return StateStarted
	}
	return StateCompleted
}

// DeriveStatus maps a state attempt's status onto the workflow status. A
// failed state fails the workflow and a cancelled state cancels it; any
// other state status leaves the workflow status unchanged — only the
// driver's end-of-workflow check moves a run to completed.
func DeriveStatus(current Status, state StateStatus) Status {
	switch state {
	case StateFailed:
		return StatusFailed
	case StateCancelled:
		return StatusCancelled
	default:
		return current
	}
}
