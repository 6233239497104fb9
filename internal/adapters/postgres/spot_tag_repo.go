package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// SpotTagRepo implements ports.SpotTagRepository.
type SpotTagRepo struct {
	db *DB
}

// NewSpotTagRepo creates a SpotTagRepo on db.
func NewSpotTagRepo(db *DB) *SpotTagRepo {
	return &SpotTagRepo{db: db}
}

func scanSpotTag(row scanner) (*domain.SpotTag, error) {
	var e domain.SpotTag
	var active, deleted bool
	if err := row.Scan(&e.ID, &e.UserActionID, &e.TagID, &active, &deleted); err != nil {
		return nil, err
	}
	e.Status = domain.StatusFromFlags(active, deleted)
	return &e, nil
}

// Create inserts an active edge between a user action and a tag.
func (r *SpotTagRepo) Create(ctx context.Context, userActionID, tagID int64) (*domain.SpotTag, error) {
	e, err := scanSpotTag(r.db.Pool.QueryRow(ctx, `
		INSERT INTO spot_tags (user_action_id, tag_id)
		VALUES ($1, $2)
		RETURNING id, user_action_id, tag_id, is_active, is_deleted
	`, userActionID, tagID))
	if err != nil {
		return nil, fmt.Errorf("insert spot tag: %w", err)
	}
	return e, nil
}

// ListActive returns the active edges of a user action ordered by id.
func (r *SpotTagRepo) ListActive(ctx context.Context, userActionID int64) ([]domain.SpotTag, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_action_id, tag_id, is_active, is_deleted
		FROM spot_tags
		WHERE user_action_id = $1 AND is_active AND NOT is_deleted
		ORDER BY id
	`, userActionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := []domain.SpotTag{}
	for rows.Next() {
		e, err := scanSpotTag(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *e)
	}
	return edges, rows.Err()
}

// SoftDeleteByUserAction deactivates every active edge of the action in one
// UPDATE and returns the referenced tag ids, duplicates included.
func (r *SpotTagRepo) SoftDeleteByUserAction(ctx context.Context, userActionID int64) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		UPDATE spot_tags SET is_active = FALSE, is_deleted = TRUE
		WHERE user_action_id = $1 AND is_active
		RETURNING tag_id
	`, userActionID)
	if err != nil {
		return nil, fmt.Errorf("delete spot tags: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("delete spot tags: %w", err)
	}
	return ids, nil
}
