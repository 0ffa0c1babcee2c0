package notify

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const RecordNotificationActivity = "RecordNotification"

// DeliverWorkflow records one notification, retrying the store write.
func DeliverWorkflow(ctx workflow.Context, msg Message) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	workflow.GetLogger(ctx).Info("delivering notification", "kind", string(msg.Kind), "reference", msg.Reference)
	return workflow.ExecuteActivity(ctx, RecordNotificationActivity, msg).Get(ctx, nil)
}

type Activities struct {
	Store Recorder
}

func (a *Activities) RecordNotification(ctx context.Context, msg Message) error {
	activity.GetLogger(ctx).Info("recording notification", "kind", string(msg.Kind), "reference", msg.Reference)
	return a.Store.Insert(ctx, msg)
}

// Register wires the workflow and its activity into w.
func Register(w worker.Registry, acts *Activities) {
	w.RegisterWorkflow(DeliverWorkflow)
	w.RegisterActivityWithOptions(acts.RecordNotification, activityOptions())
}

func activityOptions() activity.RegisterOptions {
	return activity.RegisterOptions{Name: RecordNotificationActivity}
}
