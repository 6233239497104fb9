package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

const tagColumns = `id, name, is_active, is_deleted, created_at`

// TagRepo implements ports.TagRepository.
type TagRepo struct {
	db *DB
}

// NewTagRepo creates a TagRepo on db.
func NewTagRepo(db *DB) *TagRepo {
	return &TagRepo{db: db}
}

func scanTag(row scanner) (*domain.Tag, error) {
	var t domain.Tag
	var active, deleted bool
	if err := row.Scan(&t.ID, &t.Name, &active, &deleted, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.StatusFromFlags(active, deleted)
	return &t, nil
}

// FindActiveByName returns the active tag with exactly this name.
func (r *TagRepo) FindActiveByName(ctx context.Context, name string) (*domain.Tag, error) {
	t, err := scanTag(r.db.Pool.QueryRow(ctx, `
		SELECT `+tagColumns+`
		FROM tags WHERE name = $1 AND is_active AND NOT is_deleted
	`, name))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// Create inserts an active tag. When another active tag already holds the
// name the insert is skipped against tags_active_name_key and the existing
// tag is returned with created=false.
func (r *TagRepo) Create(ctx context.Context, name string) (*domain.Tag, bool, error) {
	var t domain.Tag
	var active, deleted, created bool
	err := r.db.Pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) WHERE is_active DO NOTHING
			RETURNING `+tagColumns+`
		)
		SELECT `+tagColumns+`, TRUE FROM ins
		UNION ALL
		SELECT `+tagColumns+`, FALSE FROM tags WHERE name = $1 AND is_active
		LIMIT 1
	`, name).Scan(&t.ID, &t.Name, &active, &deleted, &t.CreatedAt, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		// the conflicting row committed after this statement's snapshot
		existing, err := r.FindActiveByName(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("reload tag %q: %w", name, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert tag: %w", err)
	}
	t.Status = domain.StatusFromFlags(active, deleted)
	return &t, created, nil
}

// GetByIDs returns the active tags among ids, ordered by id.
func (r *TagRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return []domain.Tag{}, nil
	}
	return r.list(ctx, `
		SELECT `+tagColumns+`
		FROM tags WHERE id = ANY($1) AND is_active AND NOT is_deleted
		ORDER BY id
	`, ids)
}

// ListActive returns every active tag ordered by id.
func (r *TagRepo) ListActive(ctx context.Context) ([]domain.Tag, error) {
	return r.list(ctx, `
		SELECT `+tagColumns+`
		FROM tags WHERE is_active AND NOT is_deleted
		ORDER BY id
	`)
}

func (r *TagRepo) list(ctx context.Context, query string, args ...any) ([]domain.Tag, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// DeleteOrphans soft-deletes unreferenced active tags in a single
// conditional UPDATE, so the reference check and the delete cannot be
// interleaved with another detach. An empty ids covers every active tag.
func (r *TagRepo) DeleteOrphans(ctx context.Context, ids []int64) ([]int64, error) {
	if ids == nil {
		ids = []int64{}
	}
	rows, err := r.db.Pool.Query(ctx, `
		UPDATE tags t SET is_active = FALSE, is_deleted = TRUE
		WHERE t.is_active AND NOT t.is_deleted
		  AND (cardinality($1::bigint[]) = 0 OR t.id = ANY($1::bigint[]))
		  AND NOT EXISTS (
			SELECT 1 FROM spot_tags st
			WHERE st.tag_id = t.id AND st.is_active AND NOT st.is_deleted
		  )
		RETURNING t.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("delete orphan tags: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("delete orphan tags: %w", err)
	}
	return collected, nil
}
