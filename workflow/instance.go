package workflow

import (
	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
)

// Status represents the lifecycle status of a workflow instance.
type Status string

const (
	// StatusCreated means the instance exists but no state has run yet.
	StatusCreated Status = "created"
	// StatusStarted means the instance is executing states.
	StatusStarted Status = "started"
	// StatusCompleted means the terminal state finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means a state failed terminally.
	StatusFailed Status = "failed"
	// StatusCancelled means the workflow was explicitly cancelled.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is one of the end statuses.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// StateStatus represents the lifecycle status of one state attempt.
type StateStatus string

const (
	// StateStarted means the attempt's containers were launched and at
	// least one has not finished.
	StateStarted StateStatus = "started"
	// StateCompleted means every container of the attempt completed.
	StateCompleted StateStatus = "completed"
	// StateFailed means at least one container of the attempt failed.
	StateFailed StateStatus = "failed"
	// StateCancelled means the attempt was explicitly cancelled.
	StateCancelled StateStatus = "cancelled"
)

// StateInstance is one concrete execution attempt of a State. A state with
// retries produces one StateInstance per attempt; records are never deleted,
// only superseded by a later append.
type StateInstance struct {
	drover.Entity

	ID         id.StateInstanceID   `json:"id"`
	StateName  string               `json:"state_name"`
	Containers []*backend.Container `json:"containers"`
	Status     StateStatus          `json:"status"`

	// RetryNum is the zero-based count of prior attempts of the same
	// state within the owning Instance.
	RetryNum int `json:"retry_num"`
}

// ContainerIDs returns the IDs of the attempt's container handles.
func (si *StateInstance) ContainerIDs() []id.ContainerID {
	ids := make([]id.ContainerID, len(si.Containers))
	for i, c := range si.Containers {
		ids[i] = c.ID
	}
	return ids
}

// Instance is the mutable record of one workflow run: the definition it
// runs, the append-only sequence of state attempts in execution order, and
// the workflow status. It is owned exclusively by one driver for the
// lifetime of the run; callers serialize access.
type Instance struct {
	drover.Entity

	ID             id.InstanceID    `json:"id"`
	Workflow       *Definition      `json:"workflow"`
	StateInstances []*StateInstance `json:"state_instances"`
	Status         Status           `json:"status"`
}

// NewInstance creates a fresh Instance for the given definition in the
// created status with no state attempts.
func NewInstance(def *Definition) *Instance {
	return &Instance{
		Entity:   drover.NewEntity(),
		ID:       id.NewInstanceID(),
		Workflow: def,
		Status:   StatusCreated,
	}
}

// Current returns the most recent state attempt, or nil when no state has
// been started yet.
func (in *Instance) Current() *StateInstance {
	if len(in.StateInstances) == 0 {
		return nil
	}
	return in.StateInstances[len(in.StateInstances)-1]
}

// Append adds a new state attempt to the end of the sequence.
func (in *Instance) Append(si *StateInstance) {
	in.StateInstances = append(in.StateInstances, si)
}

// Clone returns a deep copy of the instance. The immutable definition is
// shared; the state attempts and their container handles are copied.
// Stores use this to isolate persisted records from the driver's live
// mutation.
func (in *Instance) Clone() *Instance {
	cp := *in
	cp.StateInstances = make([]*StateInstance, len(in.StateInstances))
	for i, si := range in.StateInstances {
		sic := *si
		sic.Containers = make([]*backend.Container, len(si.Containers))
		for j, c := range si.Containers {
			cc := *c
			sic.Containers[j] = &cc
		}
		cp.StateInstances[i] = &sic
	}
	return &cp
}

// AttemptCount returns how many attempts of the named state exist in the
// sequence. The retry number of a new attempt is exactly this count.
// Attempts are keyed by state name, not by definition object identity, so
// cloned definitions count correctly.
func (in *Instance) AttemptCount(stateName string) int {
	n := 0
	for _, si := range in.StateInstances {
		if si.StateName == stateName {
			n++
		}
	}
	return n
}
