// Package store defines the aggregate persistence interface for workflow
// instances and lists the available backends.
//
// The instance CRUD contract lives in workflow.Store; Store adds the
// lifecycle operations every backend implements.
//
// # Available Backends
//
//   - store/memory — in-memory store for development and testing
//   - store/redis — Redis backend (hashes + msgpack attempt blobs)
//   - store/postgres — PostgreSQL backend using pgx/v5
//   - store/mongo — MongoDB backend using mongo-driver/v2
package store

import (
	"context"

	"github.com/droverhq/drover/workflow"
)

// Store is the full persistence interface implemented by every backend.
type Store interface {
	workflow.Store

	// Migrate runs all schema migrations. A no-op on schemaless backends.
	Migrate(ctx context.Context) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
