package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

// CreateInstance persists a new workflow instance.
func (s *Store) CreateInstance(ctx context.Context, in *workflow.Instance) error {
	m, err := toInstanceModel(in)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(colInstances).InsertOne(ctx, m)
	if err != nil {
		if isDuplicateKey(err) {
			return drover.ErrInstanceExists
		}
		return fmt.Errorf("drover/mongo: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves a workflow instance by ID.
func (s *Store) GetInstance(ctx context.Context, instanceID id.InstanceID) (*workflow.Instance, error) {
	var m instanceModel
	err := s.db.Collection(colInstances).
		FindOne(ctx, bson.M{"_id": instanceID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, drover.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("drover/mongo: get instance: %w", err)
	}
	return fromInstanceModel(&m)
}

// UpdateInstance persists changes to an existing workflow instance.
func (s *Store) UpdateInstance(ctx context.Context, in *workflow.Instance) error {
	m, err := toInstanceModel(in)
	if err != nil {
		return err
	}
	m.UpdatedAt = now()

	res, err := s.db.Collection(colInstances).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("drover/mongo: update instance: %w", err)
	}
	if res.MatchedCount == 0 {
		return drover.ErrInstanceNotFound
	}
	return nil
}

// ListInstances returns workflow instances matching the given options.
func (s *Store) ListInstances(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Instance, error) {
	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colInstances).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("drover/mongo: list instances: %w", err)
	}
	defer cursor.Close(ctx)

	var models []instanceModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("drover/mongo: list instances decode: %w", err)
	}

	instances := make([]*workflow.Instance, 0, len(models))
	for i := range models {
		in, convErr := fromInstanceModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("drover/mongo: list instances convert: %w", convErr)
		}
		instances = append(instances, in)
	}
	return instances, nil
}
