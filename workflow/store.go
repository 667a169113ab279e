package workflow

import (
	"context"

	"github.com/droverhq/drover/id"
)

// ListOpts controls filtering and pagination for instance list queries.
type ListOpts struct {
	// Limit is the maximum number of instances to return. Zero means no limit.
	Limit int
	// Offset is the number of instances to skip.
	Offset int
	// Status filters by workflow status. Empty means all statuses.
	Status Status
}

// Store defines the persistence contract for workflow instances.
//
// CreateInstance and GetInstance are the operations the driver itself
// requires: an instance is persisted once on creation and read back on
// resume. UpdateInstance exists for callers that checkpoint the run record
// after mutating driver calls (the engine does this after every operation);
// the driver never auto-persists.
type Store interface {
	// CreateInstance persists a new workflow instance. Returns
	// drover.ErrInstanceExists when the ID is already present.
	CreateInstance(ctx context.Context, in *Instance) error

	// GetInstance retrieves a workflow instance by ID. Returns
	// drover.ErrInstanceNotFound when absent.
	GetInstance(ctx context.Context, instanceID id.InstanceID) (*Instance, error)

	// UpdateInstance persists changes to an existing workflow instance.
	UpdateInstance(ctx context.Context, in *Instance) error

	// ListInstances returns workflow instances matching the given options.
	ListInstances(ctx context.Context, opts ListOpts) ([]*Instance, error)
}
