package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/droverhq/drover/ext"
	"github.com/droverhq/drover/workflow"
)

// meterName is the instrumentation scope for lifecycle counters.
const meterName = "github.com/droverhq/drover/observability"

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.WorkflowStarted   = (*MetricsExtension)(nil)
	_ ext.WorkflowCompleted = (*MetricsExtension)(nil)
	_ ext.WorkflowFailed    = (*MetricsExtension)(nil)
	_ ext.WorkflowCancelled = (*MetricsExtension)(nil)
	_ ext.StateStarted      = (*MetricsExtension)(nil)
	_ ext.StateCompleted    = (*MetricsExtension)(nil)
	_ ext.StateFailed       = (*MetricsExtension)(nil)
	_ ext.StateCancelled    = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle counters via OTel.
// Register it in an ext.Registry to automatically track workflow
// starts, completions, failures, cancellations, and per-state attempt
// outcomes. Counters carry a "workflow" attribute; state counters also
// carry "state".
type MetricsExtension struct {
	workflowStarted   metric.Int64Counter
	workflowCompleted metric.Int64Counter
	workflowFailed    metric.Int64Counter
	workflowCancelled metric.Int64Counter
	stateStarted      metric.Int64Counter
	stateCompleted    metric.Int64Counter
	stateFailed       metric.Int64Counter
	stateCancelled    metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global OTel
// MeterProvider. Without a configured provider the counters are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific MeterProvider
// for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		_ = err // noop fallback guaranteed by OTel API contract
		return c
	}
	return &MetricsExtension{
		workflowStarted:   counter("drover.workflow.started", "Workflow runs started"),
		workflowCompleted: counter("drover.workflow.completed", "Workflow runs completed"),
		workflowFailed:    counter("drover.workflow.failed", "Workflow runs failed"),
		workflowCancelled: counter("drover.workflow.cancelled", "Workflow runs cancelled"),
		stateStarted:      counter("drover.state.started", "State attempts started"),
		stateCompleted:    counter("drover.state.completed", "State attempts completed"),
		stateFailed:       counter("drover.state.failed", "State attempts failed"),
		stateCancelled:    counter("drover.state.cancelled", "State attempts cancelled"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func workflowAttrs(in *workflow.Instance) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("workflow", in.Workflow.Name))
}

func stateAttrs(in *workflow.Instance, si *workflow.StateInstance) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("workflow", in.Workflow.Name),
		attribute.String("state", si.StateName),
	)
}

// OnWorkflowStarted implements ext.WorkflowStarted.
func (m *MetricsExtension) OnWorkflowStarted(ctx context.Context, in *workflow.Instance) error {
	m.workflowStarted.Add(ctx, 1, workflowAttrs(in))
	return nil
}

// OnWorkflowCompleted implements ext.WorkflowCompleted.
func (m *MetricsExtension) OnWorkflowCompleted(ctx context.Context, in *workflow.Instance) error {
	m.workflowCompleted.Add(ctx, 1, workflowAttrs(in))
	return nil
}

// OnWorkflowFailed implements ext.WorkflowFailed.
func (m *MetricsExtension) OnWorkflowFailed(ctx context.Context, in *workflow.Instance) error {
	m.workflowFailed.Add(ctx, 1, workflowAttrs(in))
	return nil
}

// OnWorkflowCancelled implements ext.WorkflowCancelled.
func (m *MetricsExtension) OnWorkflowCancelled(ctx context.Context, in *workflow.Instance) error {
	m.workflowCancelled.Add(ctx, 1, workflowAttrs(in))
	return nil
}

// OnStateStarted implements ext.StateStarted.
func (m *MetricsExtension) OnStateStarted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error {
	m.stateStarted.Add(ctx, 1, stateAttrs(in, si))
	return nil
}

// OnStateCompleted implements ext.StateCompleted.
func (m *MetricsExtension) OnStateCompleted(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error {
	m.stateCompleted.Add(ctx, 1, stateAttrs(in, si))
	return nil
}

// OnStateFailed implements ext.StateFailed.
func (m *MetricsExtension) OnStateFailed(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error {
	m.stateFailed.Add(ctx, 1, stateAttrs(in, si))
	return nil
}

// OnStateCancelled implements ext.StateCancelled.
func (m *MetricsExtension) OnStateCancelled(ctx context.Context, in *workflow.Instance, si *workflow.StateInstance) error {
	m.stateCancelled.Add(ctx, 1, stateAttrs(in, si))
	return nil
}
