// Package local provides an in-process backend.Service for development
// and tests. Containers never run anything; test code advances their
// status explicitly through SetStatus, CompleteAll, and FailAll.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
)

// Compile-time interface check.
var _ backend.Service = (*Service)(nil)

// Service is an in-memory container backend. Safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	containers map[string]*backend.Container

	// startCalls counts StartContainers invocations, for tests that
	// assert exactly-once launch behavior.
	startCalls int
}

// New returns an empty local backend.
func New() *Service {
	return &Service{containers: make(map[string]*backend.Container)}
}

// StartContainers launches one container per args entry, all in the
// started status.
func (s *Service) StartContainers(_ context.Context, _, _ string, argsList []string, _ time.Duration) ([]*backend.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startCalls++
	out := make([]*backend.Container, len(argsList))
	for i := range argsList {
		c := &backend.Container{ID: id.NewContainerID(), Status: backend.StatusStarted}
		s.containers[c.ID.String()] = c
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

// GetContainers returns the current status of the given containers, in
// input order.
func (s *Service) GetContainers(_ context.Context, ids []id.ContainerID) ([]*backend.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*backend.Container, len(ids))
	for i, cid := range ids {
		c, ok := s.containers[cid.String()]
		if !ok {
			return nil, fmt.Errorf("local: unknown container %s", cid)
		}
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

// StopContainers terminates the given containers. Stopped containers
// report the failed status afterwards, matching how real backends report
// externally killed tasks.
func (s *Service) StopContainers(_ context.Context, ids []id.ContainerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cid := range ids {
		c, ok := s.containers[cid.String()]
		if !ok {
			return fmt.Errorf("local: unknown container %s", cid)
		}
		c.Status = backend.StatusFailed
	}
	return nil
}

// SetStatus sets the status of one container.
func (s *Service) SetStatus(cid id.ContainerID, status backend.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[cid.String()]
	if !ok {
		return fmt.Errorf("local: unknown container %s", cid)
	}
	c.Status = status
	return nil
}

// CompleteAll marks every known container completed.
func (s *Service) CompleteAll() {
	s.setAll(backend.StatusCompleted)
}

// FailAll marks every known container failed.
func (s *Service) FailAll() {
	s.setAll(backend.StatusFailed)
}

func (s *Service) setAll(status backend.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.containers {
		c.Status = status
	}
}

// StartCalls returns how many times StartContainers has been invoked.
func (s *Service) StartCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startCalls
}
