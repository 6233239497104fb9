package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ActivitySweepOrphanTags is the registered name of TagActivities.SweepOrphanTags.
const ActivitySweepOrphanTags = "SweepOrphanTags"

// ReconcileTagsInput scopes a reconciliation run. A zero SpotID with no
// TagIDs is a full sweep.
type ReconcileTagsInput struct {
	SpotID int64
	TagIDs []int64
}

// ReconcileTagsResult lists the tags the run soft-deleted.
type ReconcileTagsResult struct {
	Collected []int64
}

// WorkflowID returns the id used to start reconciliation for in. One id per
// deleted spot deduplicates redelivered events.
func WorkflowID(in ReconcileTagsInput, now time.Time) string {
	if in.SpotID != 0 {
		return fmt.Sprintf("reconcile-tags-spot-%d", in.SpotID)
	}
	return "reconcile-tags-full-" + now.UTC().Format("20060102T150405")
}

// ReconcileTagsWorkflow collects tags left without active references,
// typically by a spot destroy whose detach was interrupted.
func ReconcileTagsWorkflow(ctx workflow.Context, in ReconcileTagsInput) (ReconcileTagsResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting tag reconciliation", "spotID", in.SpotID, "tags", len(in.TagIDs))

	// a spot that had no tags has nothing to reconcile
	if in.SpotID != 0 && len(in.TagIDs) == 0 {
		return ReconcileTagsResult{}, nil
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var collected []int64
	if err := workflow.ExecuteActivity(ctx, ActivitySweepOrphanTags, in.TagIDs).Get(ctx, &collected); err != nil {
		return ReconcileTagsResult{}, err
	}

	logger.Info("Tag reconciliation finished", "collected", len(collected))
	return ReconcileTagsResult{Collected: collected}, nil
}
