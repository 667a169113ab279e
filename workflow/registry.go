package workflow

import (
	"fmt"
	"sync"
)

// Registry maps workflow names to validated definitions. It is safe for
// concurrent use. Definitions are immutable compiled graphs, so a name is
// registered at most once; re-registering replaces the previous definition.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty definition registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register validates the definition and adds it under its name.
func (r *Registry) Register(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("workflow: definition has no name")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	return nil
}

// Get returns the definition registered under the given name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered workflow names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}
