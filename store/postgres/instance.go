package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

// CreateInstance persists a new workflow instance.
func (s *Store) CreateInstance(ctx context.Context, in *workflow.Instance) error {
	defJSON, attemptsJSON, err := marshalInstance(in)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO drover_instances (id, status, workflow, state_instances, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, in.ID.String(), string(in.Status), defJSON, attemptsJSON, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return drover.ErrInstanceExists
		}
		return fmt.Errorf("drover/postgres: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves a workflow instance by ID.
func (s *Store) GetInstance(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, workflow, state_instances, created_at, updated_at
		FROM drover_instances
		WHERE id = $1
	`, instanceID.String())

	in, err := scanInstance(row)
	if err != nil {
		if isNoRows(err) {
			return nil, drover.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("drover/postgres: get instance: %w", err)
	}
	return in, nil
}

// UpdateInstance persists changes to an existing workflow instance.
func (s *Store) UpdateInstance(ctx context.Context, in *workflow.Instance) error {
	defJSON, attemptsJSON, err := marshalInstance(in)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE drover_instances
		SET status = $2, workflow = $3, state_instances = $4, updated_at = $5
		WHERE id = $1
	`, in.ID.String(), string(in.Status), defJSON, attemptsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("drover/postgres: update instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return drover.ErrInstanceNotFound
	}
	return nil
}

// ListInstances returns workflow instances matching the given options,
// ordered by creation time.
func (s *Store) ListInstances(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Instance, error) {
	query := `
		SELECT id, status, workflow, state_instances, created_at, updated_at
		FROM drover_instances
	`
	args := []any{}
	if opts.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at ASC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("drover/postgres: list instances: %w", err)
	}
	defer rows.Close()

	var instances []*workflow.Instance
	for rows.Next() {
		in, scanErr := scanInstance(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("drover/postgres: list instances scan: %w", scanErr)
		}
		instances = append(instances, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("drover/postgres: list instances rows: %w", err)
	}
	return instances, nil
}

// ── row models ──

type containerRow struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stateInstanceRow struct {
	ID         string         `json:"id"`
	StateName  string         `json:"state_name"`
	Containers []containerRow `json:"containers"`
	Status     string         `json:"status"`
	RetryNum   int            `json:"retry_num"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func marshalInstance(in *workflow.Instance) (defJSON, attemptsJSON []byte, err error) {
	defJSON, err = json.Marshal(in.Workflow)
	if err != nil {
		return nil, nil, fmt.Errorf("drover/postgres: marshal definition: %w", err)
	}

	rows := make([]stateInstanceRow, len(in.StateInstances))
	for i, si := range in.StateInstances {
		containers := make([]containerRow, len(si.Containers))
		for j, c := range si.Containers {
			containers[j] = containerRow{ID: c.ID.String(), Status: string(c.Status)}
		}
		rows[i] = stateInstanceRow{
			ID:         si.ID.String(),
			StateName:  si.StateName,
			Containers: containers,
			Status:     string(si.Status),
			RetryNum:   si.RetryNum,
			CreatedAt:  si.CreatedAt,
			UpdatedAt:  si.UpdatedAt,
		}
	}
	attemptsJSON, err = json.Marshal(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("drover/postgres: marshal attempts: %w", err)
	}
	return defJSON, attemptsJSON, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*workflow.Instance, error) {
	var (
		idStr        string
		status       string
		defJSON      []byte
		attemptsJSON []byte
		createdAt    time.Time
		updatedAt    time.Time
	)
	if err := row.Scan(&idStr, &status, &defJSON, &attemptsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	iID, err := id.ParseInstanceID(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse instance id: %w", err)
	}

	var def workflow.Definition
	if err := json.Unmarshal(defJSON, &def); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}

	var attemptRows []stateInstanceRow
	if err := json.Unmarshal(attemptsJSON, &attemptRows); err != nil {
		return nil, fmt.Errorf("unmarshal attempts: %w", err)
	}

	attempts := make([]*workflow.StateInstance, len(attemptRows))
	for i, r := range attemptRows {
		siID, parseErr := id.ParseStateInstanceID(r.ID)
		if parseErr != nil {
			return nil, fmt.Errorf("parse state instance id: %w", parseErr)
		}
		containers := make([]*backend.Container, len(r.Containers))
		for j, cr := range r.Containers {
			cID, cErr := id.ParseContainerID(cr.ID)
			if cErr != nil {
				return nil, fmt.Errorf("parse container id: %w", cErr)
			}
			containers[j] = &backend.Container{ID: cID, Status: backend.Status(cr.Status)}
		}
		attempts[i] = &workflow.StateInstance{
			Entity:     drover.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
			ID:         siID,
			StateName:  r.StateName,
			Containers: containers,
			Status:     workflow.StateStatus(r.Status),
			RetryNum:   r.RetryNum,
		}
	}

	return &workflow.Instance{
		Entity:         drover.Entity{CreatedAt: createdAt, UpdatedAt: updatedAt},
		ID:             iID,
		Workflow:       &def,
		StateInstances: attempts,
		Status:         workflow.Status(status),
	}, nil
}
