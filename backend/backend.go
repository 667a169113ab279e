// Package backend defines the contract with the external container
// execution service: the container handle entity and the Service
// interface for launching, querying, and stopping containers.
//
// Drover never schedules containers onto hosts itself. A Service
// implementation (backend/local for tests and development, backend/ecs
// for AWS) owns the actual execution.
package backend

import (
	"context"
	"time"

	"github.com/droverhq/drover/id"
)

// Status represents the externally reported lifecycle status of a container.
type Status string

const (
	// StatusUnknown means the backend has not yet reported a status.
	// Drover treats unknown as still running, never as success or failure.
	StatusUnknown Status = "unknown"
	// StatusStarted means the container is running.
	StatusStarted Status = "started"
	// StatusCompleted means the container exited successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the container exited with an error.
	StatusFailed Status = "failed"
)

// Container is the handle for one launched container, read-only to drover.
// The backend owns its lifecycle; drover only records the handle and reads
// the reported status.
type Container struct {
	ID     id.ContainerID `json:"id"`
	Status Status         `json:"status"`
}

// Service is the external container execution backend.
//
// StartContainers launches one container per element of argsList and
// returns their handles. GetContainers refreshes status for the given
// handles, returning them in input order. StopContainers terminates the
// given containers.
//
// All calls are synchronous from drover's viewpoint; the backend may run
// work asynchronously on its side. Errors are propagated to the caller
// unchanged — drover never retries a backend call on its own.
type Service interface {
	StartContainers(ctx context.Context, execEnv, packageName string, argsList []string, timeout time.Duration) ([]*Container, error)
	GetContainers(ctx context.Context, ids []id.ContainerID) ([]*Container, error)
	StopContainers(ctx context.Context, ids []id.ContainerID) error
}
