package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/ports"
	"github.com/samirrijal/spotmap/internal/pkg/metrics"
	"github.com/samirrijal/spotmap/internal/pkg/telemetry"
)

// TagService owns the tag lifecycle of spots: attaching tags through a
// Spot Tag user action, detaching them, and collecting orphaned tags.
type TagService struct {
	tags     ports.TagRepository
	actions  ports.UserActionRepository
	spotTags ports.SpotTagRepository
}

// NewTagService creates a new TagService.
func NewTagService(tags ports.TagRepository, actions ports.UserActionRepository, spotTags ports.SpotTagRepository) *TagService {
	return &TagService{tags: tags, actions: actions, spotTags: spotTags}
}

// Attach links names to the spot in input order. Duplicate names each get
// their own edge. An active tag with the same name is reused, otherwise a
// new tag is created. An empty list is a no-op.
//
// Steps already completed stay committed if a later step fails; re-running
// Attach reuses the tags created so far.
func (s *TagService) Attach(ctx context.Context, spotID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}

	ctx, span := telemetry.Tracer(telemetry.ScopeUsecases).Start(ctx, "TagService.Attach")
	defer span.End()
	span.SetAttributes(telemetry.AttrSpotID.Int64(spotID), telemetry.AttrTagCount.Int(len(names)))

	action, err := s.actions.Create(ctx, spotID, domain.UserActionSpotTag)
	if err != nil {
		span.SetStatus(codes.Error, "create user action")
		return fmt.Errorf("attach tags: create user action: %w", err)
	}

	for _, name := range names {
		tag, err := s.resolve(ctx, name)
		if err != nil {
			span.SetStatus(codes.Error, "resolve tag")
			return fmt.Errorf("attach tags: %w", err)
		}
		if _, err := s.spotTags.Create(ctx, action.ID, tag.ID); err != nil {
			span.SetStatus(codes.Error, "create spot tag")
			return fmt.Errorf("attach tags: link tag %d: %w", tag.ID, err)
		}
	}
	return nil
}

// resolve returns the active tag named name, creating it when absent.
func (s *TagService) resolve(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := s.tags.FindActiveByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find tag %q: %w", name, err)
	}

	tag, created, err := s.tags.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}
	if created {
		metrics.TagsCreated.Inc()
	}
	return tag, nil
}

// Detach removes every tag edge of the spot and soft-deletes the tags that
// are no longer referenced by any active edge. A spot without an active
// Spot Tag user action is a no-op, so calling Detach twice is safe.
//
// Edges go before their user action, so an interrupted Detach leaves either
// an active action that a full SweepOrphans detaches again, or unreferenced
// tags that it collects.
func (s *TagService) Detach(ctx context.Context, spotID int64) (*domain.DetachResult, error) {
	ctx, span := telemetry.Tracer(telemetry.ScopeUsecases).Start(ctx, "TagService.Detach")
	defer span.End()
	span.SetAttributes(telemetry.AttrSpotID.Int64(spotID))

	tagIDs, err := s.release(ctx, spotID)
	if err != nil {
		span.SetStatus(codes.Error, "release edges")
		return nil, err
	}
	if len(tagIDs) == 0 {
		return &domain.DetachResult{}, nil
	}

	collected, err := s.tags.DeleteOrphans(ctx, tagIDs)
	if err != nil {
		span.SetStatus(codes.Error, "collect tags")
		return nil, fmt.Errorf("detach tags: collect orphans: %w", err)
	}
	metrics.TagsCollected.WithLabelValues("detach").Add(float64(len(collected)))
	span.SetAttributes(telemetry.AttrCollected.Int(len(collected)))

	return &domain.DetachResult{TagIDs: tagIDs, Collected: len(collected)}, nil
}

// release soft-deletes the spot's active edges and then its Spot Tag user
// action, returning the distinct tag ids the edges referenced.
func (s *TagService) release(ctx context.Context, spotID int64) ([]int64, error) {
	action, err := s.actions.FindActive(ctx, spotID, domain.UserActionSpotTag)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("detach tags: find user action: %w", err)
	}

	tagIDs, err := s.spotTags.SoftDeleteByUserAction(ctx, action.ID)
	if err != nil {
		return nil, fmt.Errorf("detach tags: delete spot tags: %w", err)
	}
	if err := s.actions.SoftDelete(ctx, action.ID); err != nil {
		return nil, fmt.Errorf("detach tags: delete user action %d: %w", action.ID, err)
	}
	return distinct(tagIDs), nil
}

// ListForSpot returns the (id, name) pairs of the spot's active tags in
// association order. A spot without tags yields an empty slice.
func (s *TagService) ListForSpot(ctx context.Context, spotID int64) ([]domain.TagRef, error) {
	action, err := s.actions.FindActive(ctx, spotID, domain.UserActionSpotTag)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.TagRef{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list spot tags: find user action: %w", err)
	}

	edges, err := s.spotTags.ListActive(ctx, action.ID)
	if err != nil {
		return nil, fmt.Errorf("list spot tags: %w", err)
	}
	if len(edges) == 0 {
		return []domain.TagRef{}, nil
	}

	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.TagID)
	}
	tags, err := s.tags.GetByIDs(ctx, distinct(ids))
	if err != nil {
		return nil, fmt.Errorf("list spot tags: load tags: %w", err)
	}
	names := make(map[int64]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}

	refs := make([]domain.TagRef, 0, len(edges))
	for _, e := range edges {
		name, ok := names[e.TagID]
		if !ok {
			// edge points at a tag that is no longer active
			continue
		}
		refs = append(refs, domain.TagRef{ID: e.TagID, Name: name})
	}
	return refs, nil
}

// ListTags returns every active tag ordered by id.
func (s *TagService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// SweepOrphans soft-deletes the given tags when no active edge references
// them. An empty ids runs a full sweep: deleted spots that still hold an
// active Spot Tag user action are detached first, then every active tag is
// considered. Returns the collected ids.
func (s *TagService) SweepOrphans(ctx context.Context, ids []int64) ([]int64, error) {
	ctx, span := telemetry.Tracer(telemetry.ScopeUsecases).Start(ctx, "TagService.SweepOrphans")
	defer span.End()

	if len(ids) == 0 {
		spotIDs, err := s.actions.ListHeldByDeletedSpots(ctx, domain.UserActionSpotTag)
		if err != nil {
			span.SetStatus(codes.Error, "list stale actions")
			return nil, fmt.Errorf("sweep orphan tags: %w", err)
		}
		for _, spotID := range spotIDs {
			if _, err := s.release(ctx, spotID); err != nil {
				span.SetStatus(codes.Error, "release edges")
				return nil, fmt.Errorf("sweep orphan tags: spot %d: %w", spotID, err)
			}
		}
		if len(spotIDs) > 0 {
			slog.InfoContext(ctx, "detached tags of deleted spots", "spots", len(spotIDs))
		}
	}

	collected, err := s.tags.DeleteOrphans(ctx, distinct(ids))
	if err != nil {
		span.SetStatus(codes.Error, "collect tags")
		return nil, fmt.Errorf("sweep orphan tags: %w", err)
	}
	span.SetAttributes(telemetry.AttrCollected.Int(len(collected)))
	metrics.TagsCollected.WithLabelValues("sweep").Add(float64(len(collected)))
	if len(collected) > 0 {
		slog.InfoContext(ctx, "orphan tags collected", "count", len(collected), "scoped", len(ids) > 0)
	}
	return collected, nil
}

func distinct(ids []int64) []int64 {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
