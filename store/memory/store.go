// Package memory implements an in-memory instance store. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/store"
	"github.com/droverhq/drover/workflow"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a fully in-memory workflow.Store.
type Store struct {
	mu        sync.RWMutex
	instances map[string]*workflow.Instance
}

// New returns a new empty Store.
func New() *Store {
	return &Store{instances: make(map[string]*workflow.Instance)}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// CreateInstance persists a new workflow instance.
func (m *Store) CreateInstance(_ context.Context, in *workflow.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := in.ID.String()
	if _, exists := m.instances[key]; exists {
		return drover.ErrInstanceExists
	}
	m.instances[key] = in.Clone()
	return nil
}

// GetInstance retrieves a workflow instance by ID.
func (m *Store) GetInstance(_ context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	in, ok := m.instances[instanceID.String()]
	if !ok {
		return nil, drover.ErrInstanceNotFound
	}
	return in.Clone(), nil
}

// UpdateInstance persists changes to an existing workflow instance.
func (m *Store) UpdateInstance(_ context.Context, in *workflow.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := in.ID.String()
	if _, ok := m.instances[key]; !ok {
		return drover.ErrInstanceNotFound
	}
	cp := in.Clone()
	cp.Touch()
	m.instances[key] = cp
	return nil
}

// ListInstances returns workflow instances matching the given options,
// ordered by creation time.
func (m *Store) ListInstances(_ context.Context, opts workflow.ListOpts) ([]*workflow.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*workflow.Instance, 0, len(m.instances))
	for _, in := range m.instances {
		if opts.Status != "" && in.Status != opts.Status {
			continue
		}
		result = append(result, in.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}
