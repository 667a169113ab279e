package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/store/memory"
	"github.com/droverhq/drover/workflow"
)

func newInstance(t *testing.T) *workflow.Instance {
	t.Helper()
	def := &workflow.Definition{
		Name:     "etl",
		StartsAt: "extract",
		States: map[string]*workflow.State{
			"extract": {PackageName: "extractor", CmdArgs: []string{"--shard 1"}, End: true},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatal(err)
	}
	return workflow.NewInstance(def)
}

func TestCreateAndGet(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	in := newInstance(t)

	if err := s.CreateInstance(ctx, in); err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	got, err := s.GetInstance(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.ID.String() != in.ID.String() {
		t.Errorf("ID = %s, want %s", got.ID, in.ID)
	}
	if got.Status != workflow.StatusCreated {
		t.Errorf("status = %q, want created", got.Status)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	in := newInstance(t)

	if err := s.CreateInstance(ctx, in); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateInstance(ctx, in); !errors.Is(err, drover.ErrInstanceExists) {
		t.Fatalf("expected ErrInstanceExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := memory.New()

	_, err := s.GetInstance(context.Background(), newInstance(t).ID)
	if !errors.Is(err, drover.ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	in := newInstance(t)

	if err := s.CreateInstance(ctx, in); err != nil {
		t.Fatal(err)
	}

	in.Status = workflow.StatusStarted
	if err := s.UpdateInstance(ctx, in); err != nil {
		t.Fatalf("UpdateInstance: %v", err)
	}

	got, err := s.GetInstance(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != workflow.StatusStarted {
		t.Errorf("status = %q, want started", got.Status)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := memory.New()

	err := s.UpdateInstance(context.Background(), newInstance(t))
	if !errors.Is(err, drover.ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestStoredCopyIsIsolated(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	in := newInstance(t)

	if err := s.CreateInstance(ctx, in); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's record after persisting must not change the
	// stored copy.
	in.Status = workflow.StatusFailed

	got, err := s.GetInstance(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != workflow.StatusCreated {
		t.Errorf("stored status = %q, want created", got.Status)
	}
}

func TestListInstances(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	var created []*workflow.Instance
	for i := 0; i < 3; i++ {
		in := newInstance(t)
		in.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if i == 2 {
			in.Status = workflow.StatusStarted
		}
		if err := s.CreateInstance(ctx, in); err != nil {
			t.Fatal(err)
		}
		created = append(created, in)
	}

	all, err := s.ListInstances(ctx, workflow.ListOpts{})
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Ordered by creation time.
	for i := range all {
		if all[i].ID.String() != created[i].ID.String() {
			t.Errorf("position %d = %s, want %s", i, all[i].ID, created[i].ID)
		}
	}

	started, err := s.ListInstances(ctx, workflow.ListOpts{Status: workflow.StatusStarted})
	if err != nil {
		t.Fatal(err)
	}
	if len(started) != 1 || started[0].ID.String() != created[2].ID.String() {
		t.Errorf("status filter returned %d results", len(started))
	}

	page, err := s.ListInstances(ctx, workflow.ListOpts{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID.String() != created[1].ID.String() {
		t.Errorf("pagination returned wrong slice")
	}

	none, err := s.ListInstances(ctx, workflow.ListOpts{Offset: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("offset past end returned %d results", len(none))
	}
}
