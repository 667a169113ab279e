package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

// ── Instance model ────────────────────────────────────────────────

type containerModel struct {
	ID     string `bson:"id"`
	Status string `bson:"status"`
}

type stateInstanceModel struct {
	ID         string           `bson:"id"`
	StateName  string           `bson:"state_name"`
	Containers []containerModel `bson:"containers"`
	Status     string           `bson:"status"`
	RetryNum   int              `bson:"retry_num"`
	CreatedAt  time.Time        `bson:"created_at"`
	UpdatedAt  time.Time        `bson:"updated_at"`
}

type instanceModel struct {
	ID             string               `bson:"_id"`
	Status         string               `bson:"status"`
	Workflow       []byte               `bson:"workflow"`
	StateInstances []stateInstanceModel `bson:"state_instances"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func toInstanceModel(in *workflow.Instance) (*instanceModel, error) {
	defJSON, err := json.Marshal(in.Workflow)
	if err != nil {
		return nil, fmt.Errorf("drover/mongo: marshal definition: %w", err)
	}

	attempts := make([]stateInstanceModel, len(in.StateInstances))
	for i, si := range in.StateInstances {
		containers := make([]containerModel, len(si.Containers))
		for j, c := range si.Containers {
			containers[j] = containerModel{ID: c.ID.String(), Status: string(c.Status)}
		}
		attempts[i] = stateInstanceModel{
			ID:         si.ID.String(),
			StateName:  si.StateName,
			Containers: containers,
			Status:     string(si.Status),
			RetryNum:   si.RetryNum,
			CreatedAt:  si.CreatedAt,
			UpdatedAt:  si.UpdatedAt,
		}
	}

	return &instanceModel{
		ID:             in.ID.String(),
		Status:         string(in.Status),
		Workflow:       defJSON,
		StateInstances: attempts,
		CreatedAt:      in.CreatedAt,
		UpdatedAt:      in.UpdatedAt,
	}, nil
}

func fromInstanceModel(m *instanceModel) (*workflow.Instance, error) {
	iID, err := id.ParseInstanceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("drover/mongo: parse instance id %q: %w", m.ID, err)
	}

	var def workflow.Definition
	if err := json.Unmarshal(m.Workflow, &def); err != nil {
		return nil, fmt.Errorf("drover/mongo: unmarshal definition: %w", err)
	}

	attempts := make([]*workflow.StateInstance, len(m.StateInstances))
	for i, sm := range m.StateInstances {
		siID, parseErr := id.ParseStateInstanceID(sm.ID)
		if parseErr != nil {
			return nil, fmt.Errorf("drover/mongo: parse state instance id %q: %w", sm.ID, parseErr)
		}
		containers := make([]*backend.Container, len(sm.Containers))
		for j, cm := range sm.Containers {
			cID, cErr := id.ParseContainerID(cm.ID)
			if cErr != nil {
				return nil, fmt.Errorf("drover/mongo: parse container id %q: %w", cm.ID, cErr)
			}
			containers[j] = &backend.Container{ID: cID, Status: backend.Status(cm.Status)}
		}
		attempts[i] = &workflow.StateInstance{
			Entity:     drover.Entity{CreatedAt: sm.CreatedAt, UpdatedAt: sm.UpdatedAt},
			ID:         siID,
			StateName:  sm.StateName,
			Containers: containers,
			Status:     workflow.StateStatus(sm.Status),
			RetryNum:   sm.RetryNum,
		}
	}

	return &workflow.Instance{
		Entity:         drover.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             iID,
		Workflow:       &def,
		StateInstances: attempts,
		Status:         workflow.Status(m.Status),
	}, nil
}
