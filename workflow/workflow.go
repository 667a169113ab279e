package workflow

import (
	"fmt"
	"time"
)

// State is one step of a workflow definition: the containerized job it
// runs, its base arguments, timeout, retry budget, and chaining. States
// are immutable once the owning Definition has been validated.
type State struct {
	// Name is the state's identifier within its Definition. Filled from
	// the States map key during Validate when empty.
	Name string `json:"name"`

	// ExecEnv is the execution target handed to the backend (for ECS,
	// the task definition).
	ExecEnv string `json:"exec_env"`

	// PackageName is the containerized job package to run.
	PackageName string `json:"package_name"`

	// CmdArgs holds the base command-line argument fragments, one entry
	// per container to launch.
	CmdArgs []string `json:"cmd_args"`

	// Timeout is handed to the backend at launch time. Drover does not
	// enforce it.
	Timeout time.Duration `json:"timeout,omitempty"`

	// RetryCount is the retry budget: the maximum number of re-attempts
	// after the initial one.
	RetryCount int `json:"retry_count"`

	// Next names the state to run after this one completes.
	Next string `json:"next,omitempty"`

	// End marks this state as terminal for the workflow.
	End bool `json:"end"`
}

// Definition is an immutable compiled workflow graph: a mapping from state
// name to State plus the name of the starting state. Create it once,
// Validate it, and never mutate it afterwards.
type Definition struct {
	Name     string            `json:"name"`
	StartsAt string            `json:"starts_at"`
	States   map[string]*State `json:"states"`
}

// Validate checks the definition's referential invariants: StartsAt must
// name an existing state, and every Next of a non-terminal state must name
// an existing state. State names are normalized from the map keys.
func (d *Definition) Validate() error {
	if len(d.States) == 0 {
		return fmt.Errorf("workflow %q: no states defined", d.Name)
	}

	if _, ok := d.States[d.StartsAt]; !ok {
		return fmt.Errorf("workflow %q: starts_at %q does not exist", d.Name, d.StartsAt)
	}

	for key, st := range d.States {
		if st == nil {
			return fmt.Errorf("workflow %q: state %q is nil", d.Name, key)
		}
		if st.Name == "" {
			st.Name = key
		} else if st.Name != key {
			return fmt.Errorf("workflow %q: state keyed %q declares name %q", d.Name, key, st.Name)
		}

		if st.End {
			continue
		}
		if st.Next == "" {
			return fmt.Errorf("workflow %q: state %q is not terminal and has no next", d.Name, key)
		}
		if _, ok := d.States[st.Next]; !ok {
			return fmt.Errorf("workflow %q: state %q references unknown next %q", d.Name, key, st.Next)
		}
	}

	return nil
}

// StateNamed returns the state with the given name.
func (d *Definition) StateNamed(name string) (*State, bool) {
	st, ok := d.States[name]
	return st, ok
}

// Start returns the starting state.
func (d *Definition) Start() *State {
	return d.States[d.StartsAt]
}
