package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

// CreateInstance persists a new workflow instance.
func (s *Store) CreateInstance(ctx context.Context, in *workflow.Instance) error {
	iID := in.ID.String()
	key := instanceKey(iID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("drover/redis: create instance exists: %w", err)
	}
	if exists > 0 {
		return drover.ErrInstanceExists
	}

	m, err := instanceToMap(in)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	pipe.SAdd(ctx, instanceIDsKey, iID)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("drover/redis: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves a workflow instance by ID.
func (s *Store) GetInstance(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	key := instanceKey(instanceID.String())
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("drover/redis: get instance: %w", err)
	}
	if len(vals) == 0 {
		return nil, drover.ErrInstanceNotFound
	}
	return mapToInstance(vals)
}

// UpdateInstance persists changes to an existing workflow instance.
func (s *Store) UpdateInstance(ctx context.Context, in *workflow.Instance) error {
	key := instanceKey(in.ID.String())
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("drover/redis: update instance exists: %w", err)
	}
	if exists == 0 {
		return drover.ErrInstanceNotFound
	}

	m, err := instanceToMap(in)
	if err != nil {
		return err
	}
	m["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.client.HSet(ctx, key, m).Result()
	if err != nil {
		return fmt.Errorf("drover/redis: update instance: %w", err)
	}
	return nil
}

// ListInstances returns workflow instances matching the given options.
func (s *Store) ListInstances(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Instance, error) {
	ids, err := s.client.SMembers(ctx, instanceIDsKey).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("drover/redis: list instances smembers: %w", err)
	}

	var instances []*workflow.Instance
	for _, iID := range ids {
		vals, getErr := s.client.HGetAll(ctx, instanceKey(iID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		in, convErr := mapToInstance(vals)
		if convErr != nil {
			continue
		}
		if opts.Status != "" && in.Status != opts.Status {
			continue
		}
		instances = append(instances, in)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(instances) {
			return nil, nil
		}
		instances = instances[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(instances) {
		instances = instances[:opts.Limit]
	}
	return instances, nil
}

// ── serialization models ──
//
// State attempts are packed into one msgpack blob per instance; the
// definition travels as JSON. TypeIDs are stored as their string form.

type containerModel struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

type stateInstanceModel struct {
	ID         string           `msgpack:"id"`
	StateName  string           `msgpack:"state_name"`
	Containers []containerModel `msgpack:"containers"`
	Status     string           `msgpack:"status"`
	RetryNum   int              `msgpack:"retry_num"`
	CreatedAt  time.Time        `msgpack:"created_at"`
	UpdatedAt  time.Time        `msgpack:"updated_at"`
}

func packAttempts(attempts []*workflow.StateInstance) ([]byte, error) {
	models := make([]stateInstanceModel, len(attempts))
	for i, si := range attempts {
		containers := make([]containerModel, len(si.Containers))
		for j, c := range si.Containers {
			containers[j] = containerModel{ID: c.ID.String(), Status: string(c.Status)}
		}
		models[i] = stateInstanceModel{
			ID:         si.ID.String(),
			StateName:  si.StateName,
			Containers: containers,
			Status:     string(si.Status),
			RetryNum:   si.RetryNum,
			CreatedAt:  si.CreatedAt,
			UpdatedAt:  si.UpdatedAt,
		}
	}
	data, err := msgpack.Marshal(models)
	if err != nil {
		return nil, fmt.Errorf("drover/redis: pack attempts: %w", err)
	}
	return data, nil
}

func unpackAttempts(data []byte) ([]*workflow.StateInstance, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var models []stateInstanceModel
	if err := msgpack.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("drover/redis: unpack attempts: %w", err)
	}

	attempts := make([]*workflow.StateInstance, len(models))
	for i, m := range models {
		siID, err := id.ParseStateInstanceID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("drover/redis: parse state instance id: %w", err)
		}
		containers := make([]*backend.Container, len(m.Containers))
		for j, cm := range m.Containers {
			cID, cErr := id.ParseContainerID(cm.ID)
			if cErr != nil {
				return nil, fmt.Errorf("drover/redis: parse container id: %w", cErr)
			}
			containers[j] = &backend.Container{ID: cID, Status: backend.Status(cm.Status)}
		}
		attempts[i] = &workflow.StateInstance{
			Entity:     drover.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			ID:         siID,
			StateName:  m.StateName,
			Containers: containers,
			Status:     workflow.StateStatus(m.Status),
			RetryNum:   m.RetryNum,
		}
	}
	return attempts, nil
}

func instanceToMap(in *workflow.Instance) (map[string]interface{}, error) {
	defJSON, err := json.Marshal(in.Workflow)
	if err != nil {
		return nil, fmt.Errorf("drover/redis: marshal definition: %w", err)
	}
	attempts, err := packAttempts(in.StateInstances)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":         in.ID.String(),
		"status":     string(in.Status),
		"workflow":   string(defJSON),
		"attempts":   string(attempts),
		"created_at": in.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": in.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

func mapToInstance(m map[string]string) (*workflow.Instance, error) {
	iID, err := id.ParseInstanceID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("drover/redis: parse instance id: %w", err)
	}

	var def workflow.Definition
	if err := json.Unmarshal([]byte(m["workflow"]), &def); err != nil {
		return nil, fmt.Errorf("drover/redis: unmarshal definition: %w", err)
	}

	attempts, err := unpackAttempts([]byte(m["attempts"]))
	if err != nil {
		return nil, err
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"])

	return &workflow.Instance{
		Entity:         drover.Entity{CreatedAt: createdAt, UpdatedAt: updatedAt},
		ID:             iID,
		Workflow:       &def,
		StateInstances: attempts,
		Status:         workflow.Status(m["status"]),
	}, nil
}
