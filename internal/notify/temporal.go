package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

const DefaultTaskQueue = "booking-notifications"

type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalSink hands each message to DeliverWorkflow on the notifier worker.
type TemporalSink struct {
	client    workflowStarter
	taskQueue string
}

func NewTemporalSink(c client.Client, taskQueue string) TemporalSink {
	return newTemporalSink(c, taskQueue)
}

func newTemporalSink(c workflowStarter, taskQueue string) TemporalSink {
	if strings.TrimSpace(taskQueue) == "" {
		taskQueue = DefaultTaskQueue
	}
	return TemporalSink{client: c, taskQueue: taskQueue}
}

// WorkflowID is stable per booking and kind so a resend does not deliver twice.
func WorkflowID(msg Message) string {
	ref := strings.TrimSpace(msg.Reference)
	if ref == "" {
		ref = uuid.NewString()
	}
	return fmt.Sprintf("notify-%s-%s", ref, msg.Kind)
}

func (s TemporalSink) Notify(ctx context.Context, msg Message) error {
	opts := client.StartWorkflowOptions{
		ID:                    WorkflowID(msg),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := s.client.ExecuteWorkflow(ctx, opts, DeliverWorkflow, msg)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("start notification workflow: %w", err)
	}
	return nil
}
