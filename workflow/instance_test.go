package workflow_test

import (
	"testing"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

func attempt(state string, retry int) *workflow.StateInstance {
	return &workflow.StateInstance{
		Entity:    drover.NewEntity(),
		ID:        id.NewStateInstanceID(),
		StateName: state,
		Status:    workflow.StateStarted,
		RetryNum:  retry,
		Containers: []*backend.Container{
			{ID: id.NewContainerID(), Status: backend.StatusStarted},
		},
	}
}

func TestNewInstance(t *testing.T) {
	def := validDef()
	if err := def.Validate(); err != nil {
		t.Fatal(err)
	}

	in := workflow.NewInstance(def)
	if in.Status != workflow.StatusCreated {
		t.Errorf("status = %q, want created", in.Status)
	}
	if in.ID.IsNil() {
		t.Error("instance has nil ID")
	}
	if in.Current() != nil {
		t.Error("fresh instance has a current attempt")
	}
}

func TestInstance_CurrentIsLastAppended(t *testing.T) {
	in := workflow.NewInstance(validDef())

	in.Append(attempt("extract", 0))
	in.Append(attempt("extract", 1))
	in.Append(attempt("load", 0))

	cur := in.Current()
	if cur.StateName != "load" || cur.RetryNum != 0 {
		t.Errorf("current = %s/%d, want load/0", cur.StateName, cur.RetryNum)
	}
}

func TestInstance_AttemptCount(t *testing.T) {
	in := workflow.NewInstance(validDef())

	if got := in.AttemptCount("extract"); got != 0 {
		t.Errorf("AttemptCount = %d, want 0", got)
	}

	in.Append(attempt("extract", 0))
	in.Append(attempt("extract", 1))
	in.Append(attempt("load", 0))

	if got := in.AttemptCount("extract"); got != 2 {
		t.Errorf("AttemptCount(extract) = %d, want 2", got)
	}
	if got := in.AttemptCount("load"); got != 1 {
		t.Errorf("AttemptCount(load) = %d, want 1", got)
	}
}

func TestInstance_CloneIsolatesMutableState(t *testing.T) {
	in := workflow.NewInstance(validDef())
	in.Status = workflow.StatusStarted
	in.Append(attempt("extract", 0))

	cp := in.Clone()

	// Mutating the original must not leak into the copy.
	in.Status = workflow.StatusFailed
	in.Current().Status = workflow.StateFailed
	in.Current().Containers[0].Status = backend.StatusFailed
	in.Append(attempt("extract", 1))

	if cp.Status != workflow.StatusStarted {
		t.Errorf("clone status = %q, want started", cp.Status)
	}
	if len(cp.StateInstances) != 1 {
		t.Errorf("clone attempts = %d, want 1", len(cp.StateInstances))
	}
	if cp.Current().Status != workflow.StateStarted {
		t.Errorf("clone attempt status = %q, want started", cp.Current().Status)
	}
	if cp.Current().Containers[0].Status != backend.StatusStarted {
		t.Errorf("clone container status = %q, want started", cp.Current().Containers[0].Status)
	}

	// The definition itself is shared.
	if cp.Workflow != in.Workflow {
		t.Error("clone copied the immutable definition")
	}
}
