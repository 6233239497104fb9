package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

func TestTagService_Detach_Idempotent(t *testing.T) {
	store := newMemStore()
	svc, tags := newServices(store, nil, nil)
	ctx := context.Background()

	spot, _ := svc.Create(ctx, spotInput(1, "Twice", "1", "1", "a", "b"))

	first, err := tags.Detach(ctx, spot.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.TagIDs) != 2 || first.Collected != 2 {
		t.Fatalf("expected 2 tags touched and collected, got %+v", first)
	}

	second, err := tags.Detach(ctx, spot.ID)
	if err != nil {
		t.Fatalf("unexpected error on second detach: %v", err)
	}
	if len(second.TagIDs) != 0 || second.Collected != 0 {
		t.Errorf("expected second detach to be a no-op, got %+v", second)
	}
}

func TestTagService_Detach_NoUserAction(t *testing.T) {
	store := newMemStore()
	_, tags := newServices(store, nil, nil)

	res, err := tags.Detach(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.TagIDs) != 0 {
		t.Errorf("expected nothing detached, got %+v", res)
	}
}

func TestTagService_Detach_DuplicateEdgesCollectOnce(t *testing.T) {
	store := newMemStore()
	svc, tags := newServices(store, nil, nil)
	ctx := context.Background()

	spot, _ := svc.Create(ctx, spotInput(1, "Dup", "1", "1", "a", "a"))

	res, err := tags.Detach(ctx, spot.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.TagIDs) != 1 || res.Collected != 1 {
		t.Errorf("expected one distinct tag collected once, got %+v", res)
	}
}

func TestTagService_SweepReclaimsAbortedDetach(t *testing.T) {
	store := newMemStore()
	svc, tags := newServices(store, nil, nil)
	ctx := context.Background()

	spot, _ := svc.Create(ctx, spotInput(1, "Aborted", "1", "1", "stale"))

	store.fail["tags.DeleteOrphans"] = errors.New("statement timeout")
	if _, err := tags.Detach(ctx, spot.ID); err == nil {
		t.Fatal("expected detach to fail")
	}
	if store.tagByName("stale").Status != domain.StatusActive {
		t.Fatal("tag should still be active after the aborted detach")
	}
	delete(store.fail, "tags.DeleteOrphans")

	// the user action is already gone, so a retried detach cannot reach the tag
	res, err := tags.Detach(ctx, spot.ID)
	if err != nil || res.Collected != 0 {
		t.Fatalf("expected retried detach to be a no-op, got %+v, %v", res, err)
	}

	collected, err := tags.SweepOrphans(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collected) != 1 || collected[0] != store.tagByName("stale").ID {
		t.Errorf("expected sweep to collect the stale tag, got %v", collected)
	}
}

func TestTagService_SweepOrphans_Scoped(t *testing.T) {
	store := newMemStore()
	_, tags := newServices(store, nil, nil)
	ctx := context.Background()

	a, _, _ := store.tagRepo().Create(ctx, "a")
	if _, _, err := store.tagRepo().Create(ctx, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	collected, err := tags.SweepOrphans(ctx, []int64{a.ID, a.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collected) != 1 || collected[0] != a.ID {
		t.Errorf("expected only tag a collected, got %v", collected)
	}
	if store.tagByName("b").Status != domain.StatusActive {
		t.Errorf("tag b is outside the sweep scope")
	}
}

func TestTagService_ListForSpot_Empty(t *testing.T) {
	store := newMemStore()
	svc, tags := newServices(store, nil, nil)
	ctx := context.Background()

	spot, _ := svc.Create(ctx, spotInput(1, "Plain", "1", "1"))

	refs, err := tags.ListForSpot(ctx, spot.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refs == nil || len(refs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", refs)
	}
}

func TestTagService_ListTags(t *testing.T) {
	store := newMemStore()
	svc, tags := newServices(store, nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, spotInput(1, "Listing", "1", "1", "z", "y")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := tags.ListTags(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].Name != "z" || all[1].Name != "y" {
		t.Errorf("expected tags ordered by id, got %+v", all)
	}
}

func TestTagService_Attach_LookupFailureAborts(t *testing.T) {
	store := newMemStore()
	store.fail["tags.FindActiveByName"] = errors.New("pool closed")
	_, tags := newServices(store, nil, nil)

	err := tags.Attach(context.Background(), 1, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.spotTags) != 0 {
		t.Errorf("no edge should be written after the failure, got %d", len(store.spotTags))
	}
}

func TestTagService_FullSweepRepairsInterruptedDestroy(t *testing.T) {
	for _, step := range []string{"spotTags.SoftDeleteByUserAction", "actions.SoftDelete"} {
		t.Run(step, func(t *testing.T) {
			store := newMemStore()
			svc, tags := newServices(store, nil, nil)
			ctx := context.Background()

			spot, _ := svc.Create(ctx, spotInput(1, "Cafe", "40.1", "-3.5", "coffee"))
			kept, _ := svc.Create(ctx, spotInput(2, "Bar", "40.1", "-3.5", "wifi"))

			store.fail[step] = errors.New("connection reset")
			if _, err := svc.Destroy(ctx, spot.ID); err == nil {
				t.Fatal("expected destroy to fail")
			}
			delete(store.fail, step)

			if _, err := svc.Destroy(ctx, spot.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected retried destroy to report not found, got %v", err)
			}

			collected, err := tags.SweepOrphans(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			coffee := store.tagByName("coffee")
			if len(collected) != 1 || collected[0] != coffee.ID {
				t.Fatalf("expected sweep to collect coffee, got %v", collected)
			}
			if coffee.Status != domain.StatusDeleted {
				t.Error("coffee should be inactive after the sweep")
			}
			for _, a := range store.actions {
				if a.SpotID == spot.ID && a.Status != domain.StatusDeleted {
					t.Errorf("user action of the deleted spot is still active: %+v", a)
				}
			}
			for _, e := range store.spotTags {
				if e.TagID == coffee.ID && e.Status != domain.StatusDeleted {
					t.Errorf("edge of the deleted spot is still active: %+v", e)
				}
			}

			refs, err := tags.ListForSpot(ctx, kept.ID)
			if err != nil || len(refs) != 1 || refs[0].Name != "wifi" {
				t.Errorf("live spot must keep its tags, got %+v, %v", refs, err)
			}

			again, err := tags.SweepOrphans(ctx, nil)
			if err != nil || len(again) != 0 {
				t.Errorf("expected a second sweep to be a no-op, got %v, %v", again, err)
			}
		})
	}
}
