package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/spotmap/internal/pkg/telemetry"
)

// OrphanSweeper collects tags no active spot references.
// usecases.TagService satisfies it.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, tagIDs []int64) ([]int64, error)
}

// TagActivities holds the activity implementations for tag reconciliation.
type TagActivities struct {
	Sweeper OrphanSweeper
}

// SweepOrphanTags soft-deletes the unreferenced tags among tagIDs, or
// every unreferenced tag when tagIDs is empty.
func (a *TagActivities) SweepOrphanTags(ctx context.Context, tagIDs []int64) ([]int64, error) {
	ctx, span := telemetry.Tracer(telemetry.ScopeWorkflows).Start(ctx, "TagActivities.SweepOrphanTags")
	defer span.End()
	span.SetAttributes(telemetry.AttrTagCount.Int(len(tagIDs)))

	collected, err := a.Sweeper.SweepOrphans(ctx, tagIDs)
	if err != nil {
		span.SetStatus(codes.Error, "sweep")
		return nil, fmt.Errorf("sweep orphan tags: %w", err)
	}
	span.SetAttributes(telemetry.AttrCollected.Int(len(collected)))
	activity.GetLogger(ctx).Info("orphan tags swept", "candidates", len(tagIDs), "collected", len(collected))
	return collected, nil
}
