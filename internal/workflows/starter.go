package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// Starter launches ReconcileTagsWorkflow runs on a task queue.
type Starter struct {
	Client    client.Client
	TaskQueue string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *Starter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start launches a reconciliation run for in and returns its run id.
// Starting an id that is already running returns the existing run.
func (s *Starter) Start(ctx context.Context, in ReconcileTagsInput) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(in, s.now()),
		TaskQueue: s.TaskQueue,
	}
	run, err := s.Client.ExecuteWorkflow(ctx, opts, ReconcileTagsWorkflow, in)
	if err != nil {
		return "", fmt.Errorf("start workflow %s: %w", opts.ID, err)
	}
	return run.GetRunID(), nil
}

// OnSpotDeleted starts a run scoped to the tags the deleted spot carried.
func (s *Starter) OnSpotDeleted(ctx context.Context, ev *domain.SpotEvent) error {
	if len(ev.TagIDs) == 0 {
		return nil
	}
	_, err := s.Start(ctx, ReconcileTagsInput{SpotID: ev.SpotID, TagIDs: ev.TagIDs})
	return err
}

// RunPeriodic starts a full sweep every interval until ctx is cancelled.
// Failed starts are logged and retried on the next tick.
func (s *Starter) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Start(ctx, ReconcileTagsInput{}); err != nil {
				slog.Warn("full tag sweep not started", "error", err)
			}
		}
	}
}
