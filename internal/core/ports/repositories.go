package ports

import (
	"context"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// SpotRepository persists spots. Every read filters out soft-deleted rows.
type SpotRepository interface {
	Create(ctx context.Context, spot *domain.Spot) error
	GetByID(ctx context.Context, id int64) (*domain.Spot, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Spot, error)
	// SoftDelete marks an active spot deleted and returns it.
	// Returns domain.ErrNotFound if no active spot matches.
	SoftDelete(ctx context.Context, id int64) (*domain.Spot, error)
	// ExistsNearbyForUser reports whether userID owns an active spot within
	// radiusKm of center.
	ExistsNearbyForUser(ctx context.Context, userID int64, center domain.GeoPoint, radiusKm float64) (bool, error)
	// ListNearby returns the coordinates of every active spot within radiusKm
	// of center, ordered by id ascending.
	ListNearby(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.GeoPoint, error)
}

// TagRepository persists tags.
type TagRepository interface {
	// FindActiveByName returns the active tag with exactly this name.
	// Returns domain.ErrNotFound if none exists.
	FindActiveByName(ctx context.Context, name string) (*domain.Tag, error)
	// Create inserts a new active tag. If an active tag with the same name
	// already exists it is returned instead.
	Create(ctx context.Context, name string) (*domain.Tag, bool, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Tag, error)
	ListActive(ctx context.Context) ([]domain.Tag, error)
	// DeleteOrphans soft-deletes, in one statement, each active tag among ids
	// that no active spot tag references. An empty ids sweeps every active tag.
	// Returns the ids that were deleted.
	DeleteOrphans(ctx context.Context, ids []int64) ([]int64, error)
}

// UserActionRepository persists user actions.
type UserActionRepository interface {
	Create(ctx context.Context, spotID int64, typ domain.UserActionType) (*domain.UserAction, error)
	// FindActive returns the active action of typ for spotID.
	// Returns domain.ErrNotFound if none exists.
	FindActive(ctx context.Context, spotID int64, typ domain.UserActionType) (*domain.UserAction, error)
	SoftDelete(ctx context.Context, id int64) error
	// ListHeldByDeletedSpots returns, ordered by spot id, the soft-deleted
	// spots that still own an active action of typ.
	ListHeldByDeletedSpots(ctx context.Context, typ domain.UserActionType) ([]int64, error)
}

// SpotTagRepository persists spot-tag edges.
type SpotTagRepository interface {
	Create(ctx context.Context, userActionID, tagID int64) (*domain.SpotTag, error)
	// ListActive returns the active edges of a user action ordered by id.
	ListActive(ctx context.Context, userActionID int64) ([]domain.SpotTag, error)
	// SoftDeleteByUserAction deactivates every active edge of a user action in
	// one statement and returns the tag ids they referenced.
	SoftDeleteByUserAction(ctx context.Context, userActionID int64) ([]int64, error)
}
