package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// UserActionRepo implements ports.UserActionRepository.
type UserActionRepo struct {
	db *DB
}

// NewUserActionRepo creates a UserActionRepo on db.
func NewUserActionRepo(db *DB) *UserActionRepo {
	return &UserActionRepo{db: db}
}

func scanUserAction(row scanner) (*domain.UserAction, error) {
	var a domain.UserAction
	var active, deleted bool
	if err := row.Scan(&a.ID, &a.Type, &a.SpotID, &active, &deleted); err != nil {
		return nil, err
	}
	a.Status = domain.StatusFromFlags(active, deleted)
	return &a, nil
}

// Create inserts an active action of typ for the spot.
func (r *UserActionRepo) Create(ctx context.Context, spotID int64, typ domain.UserActionType) (*domain.UserAction, error) {
	a, err := scanUserAction(r.db.Pool.QueryRow(ctx, `
		INSERT INTO user_actions (type_user_action_id, spot_id)
		VALUES ($1, $2)
		RETURNING id, type_user_action_id, spot_id, is_active, is_deleted
	`, int64(typ), spotID))
	if err != nil {
		return nil, fmt.Errorf("insert user action: %w", err)
	}
	return a, nil
}

// FindActive returns the most recent active action of typ for the spot.
func (r *UserActionRepo) FindActive(ctx context.Context, spotID int64, typ domain.UserActionType) (*domain.UserAction, error) {
	a, err := scanUserAction(r.db.Pool.QueryRow(ctx, `
		SELECT id, type_user_action_id, spot_id, is_active, is_deleted
		FROM user_actions
		WHERE spot_id = $1 AND type_user_action_id = $2 AND is_active AND NOT is_deleted
		ORDER BY id DESC
		LIMIT 1
	`, spotID, int64(typ)))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// SoftDelete deactivates the action. Deleting an inactive action is a no-op.
func (r *UserActionRepo) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE user_actions SET is_active = FALSE, is_deleted = TRUE
		WHERE id = $1 AND is_active
	`, id)
	return err
}

// ListHeldByDeletedSpots returns the deleted spots still holding an active
// action of typ, left behind by an interrupted detach.
func (r *UserActionRepo) ListHeldByDeletedSpots(ctx context.Context, typ domain.UserActionType) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ua.spot_id
		FROM user_actions ua
		JOIN spots s ON s.id = ua.spot_id
		WHERE ua.type_user_action_id = $1 AND ua.is_active AND s.is_deleted
		ORDER BY ua.spot_id
	`, int64(typ))
	if err != nil {
		return nil, fmt.Errorf("query stale user actions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan stale user actions: %w", err)
	}
	return ids, nil
}
