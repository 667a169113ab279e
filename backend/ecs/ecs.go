// Package ecs implements backend.Service on AWS Elastic Container Service.
// Each state container becomes one Fargate task: StartContainers issues one
// RunTask per argument entry, GetContainers maps DescribeTasks output back
// onto drover statuses, and StopContainers fans out StopTask calls.
//
// The Service keeps the container-ID-to-task-ARN mapping in memory, so the
// same Service value must refresh the containers it launched. Resuming a
// run from another process requires re-attaching with Attach.
package ecs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"golang.org/x/sync/errgroup"

	"github.com/droverhq/drover/backend"
	"github.com/droverhq/drover/id"
)

// Compile-time interface check.
var _ backend.Service = (*Service)(nil)

// API is the subset of the ECS client the Service uses. Satisfied by
// *ecs.Client; tests substitute a fake.
type API interface {
	RunTask(ctx context.Context, params *awsecs.RunTaskInput, optFns ...func(*awsecs.Options)) (*awsecs.RunTaskOutput, error)
	DescribeTasks(ctx context.Context, params *awsecs.DescribeTasksInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeTasksOutput, error)
	StopTask(ctx context.Context, params *awsecs.StopTaskInput, optFns ...func(*awsecs.Options)) (*awsecs.StopTaskOutput, error)
}

// Config holds the launch parameters shared by every task the Service runs.
type Config struct {
	// Cluster is the ECS cluster to launch into.
	Cluster string
	// ContainerName is the container to override inside the task
	// definition named by the state's ExecEnv.
	ContainerName string
	// Subnets and SecurityGroups configure awsvpc networking.
	Subnets        []string
	SecurityGroups []string
	// AssignPublicIP enables a public IP on the task ENI.
	AssignPublicIP bool
}

// Service is an ECS-backed container execution service.
type Service struct {
	client API
	cfg    Config

	mu    sync.Mutex
	tasks map[string]string // container ID → task ARN
}

// New creates a Service from an existing ECS client.
func New(client API, cfg Config) *Service {
	return &Service{client: client, cfg: cfg, tasks: make(map[string]string)}
}

// NewFromConfig creates a Service using the default AWS configuration chain
// (environment, shared config, instance role).
func NewFromConfig(ctx context.Context, cfg Config) (*Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("ecs: load aws config: %w", err)
	}
	return New(awsecs.NewFromConfig(awsCfg), cfg), nil
}

// Attach registers an already-running task under a container ID, for
// resuming a run launched by another process.
func (s *Service) Attach(cid id.ContainerID, taskARN string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[cid.String()] = taskARN
}

// StartContainers launches one task per argument entry against the task
// definition named by execEnv. The per-state timeout travels as a task tag;
// ECS does not enforce it and neither does drover.
func (s *Service) StartContainers(ctx context.Context, execEnv, packageName string, argsList []string, timeout time.Duration) ([]*backend.Container, error) {
	out := make([]*backend.Container, 0, len(argsList))

	for _, args := range argsList {
		command := append([]string{packageName}, strings.Fields(args)...)

		input := &awsecs.RunTaskInput{
			Cluster:        aws.String(s.cfg.Cluster),
			TaskDefinition: aws.String(execEnv),
			LaunchType:     types.LaunchTypeFargate,
			Overrides: &types.TaskOverride{
				ContainerOverrides: []types.ContainerOverride{{
					Name:    aws.String(s.cfg.ContainerName),
					Command: command,
				}},
			},
			Tags: []types.Tag{{
				Key:   aws.String("drover:timeout"),
				Value: aws.String(timeout.String()),
			}},
		}
		if len(s.cfg.Subnets) > 0 {
			assign := types.AssignPublicIpDisabled
			if s.cfg.AssignPublicIP {
				assign = types.AssignPublicIpEnabled
			}
			input.NetworkConfiguration = &types.NetworkConfiguration{
				AwsvpcConfiguration: &types.AwsVpcConfiguration{
					Subnets:        s.cfg.Subnets,
					SecurityGroups: s.cfg.SecurityGroups,
					AssignPublicIp: assign,
				},
			}
		}

		resp, err := s.client.RunTask(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("ecs: run task for %q: %w", packageName, err)
		}
		if len(resp.Failures) > 0 {
			f := resp.Failures[0]
			return nil, fmt.Errorf("ecs: run task for %q: %s: %s",
				packageName, aws.ToString(f.Reason), aws.ToString(f.Detail))
		}
		if len(resp.Tasks) == 0 {
			return nil, fmt.Errorf("ecs: run task for %q: no task returned", packageName)
		}

		c := &backend.Container{ID: id.NewContainerID(), Status: backend.StatusStarted}

		s.mu.Lock()
		s.tasks[c.ID.String()] = aws.ToString(resp.Tasks[0].TaskArn)
		s.mu.Unlock()

		out = append(out, c)
	}

	return out, nil
}

// GetContainers refreshes the status of the given containers via one
// DescribeTasks call, returning them in input order.
func (s *Service) GetContainers(ctx context.Context, ids []id.ContainerID) ([]*backend.Container, error) {
	arns := make([]string, len(ids))
	arnToID := make(map[string]id.ContainerID, len(ids))

	s.mu.Lock()
	for i, cid := range ids {
		arn, ok := s.tasks[cid.String()]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("ecs: unknown container %s", cid)
		}
		arns[i] = arn
		arnToID[arn] = cid
	}
	s.mu.Unlock()

	resp, err := s.client.DescribeTasks(ctx, &awsecs.DescribeTasksInput{
		Cluster: aws.String(s.cfg.Cluster),
		Tasks:   arns,
	})
	if err != nil {
		return nil, fmt.Errorf("ecs: describe tasks: %w", err)
	}

	statuses := make(map[string]backend.Status, len(resp.Tasks))
	for _, task := range resp.Tasks {
		statuses[aws.ToString(task.TaskArn)] = taskStatus(task)
	}

	out := make([]*backend.Container, len(ids))
	for i, arn := range arns {
		status, ok := statuses[arn]
		if !ok {
			status = backend.StatusUnknown
		}
		out[i] = &backend.Container{ID: arnToID[arn], Status: status}
	}
	return out, nil
}

// StopContainers stops the given tasks concurrently.
func (s *Service) StopContainers(ctx context.Context, ids []id.ContainerID) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, cid := range ids {
		s.mu.Lock()
		arn, ok := s.tasks[cid.String()]
		s.mu.Unlock()
		if !ok {
			return fmt.Errorf("ecs: unknown container %s", cid)
		}

		g.Go(func() error {
			_, err := s.client.StopTask(ctx, &awsecs.StopTaskInput{
				Cluster: aws.String(s.cfg.Cluster),
				Task:    aws.String(arn),
				Reason:  aws.String("drover: state cancelled"),
			})
			if err != nil {
				return fmt.Errorf("ecs: stop task %s: %w", arn, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// taskStatus maps an ECS task onto a drover container status. A stopped
// task is completed only when every container exited zero.
func taskStatus(task types.Task) backend.Status {
	switch aws.ToString(task.LastStatus) {
	case "RUNNING":
		return backend.StatusStarted
	case "STOPPED":
		for _, c := range task.Containers {
			if c.ExitCode == nil || *c.ExitCode != 0 {
				return backend.StatusFailed
			}
		}
		return backend.StatusCompleted
	case "PROVISIONING", "PENDING", "ACTIVATING", "DEPROVISIONING", "DEACTIVATING", "STOPPING":
		return backend.StatusStarted
	default:
		return backend.StatusUnknown
	}
}
