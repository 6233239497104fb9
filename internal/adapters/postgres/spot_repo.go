package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

const spotColumns = `id, user_id, name, lat, lng, country, country_code, state, city,
	full_address, postal_code, is_active, is_deleted, created_at`

// point builds the WGS 84 geography for ($lng, $lat) placeholders.
const point = `ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography`

// SpotRepo implements ports.SpotRepository with pgx and PostGIS.
type SpotRepo struct {
	db *DB
}

// NewSpotRepo creates a new SpotRepo.
func NewSpotRepo(db *DB) *SpotRepo {
	return &SpotRepo{db: db}
}

func scanSpot(row scanner) (*domain.Spot, error) {
	var s domain.Spot
	var active, deleted bool
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Location.Lat, &s.Location.Lng,
		&s.Country, &s.CountryCode, &s.State, &s.City,
		&s.FullAddress, &s.PostalCode, &active, &deleted, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = domain.StatusFromFlags(active, deleted)
	return &s, nil
}

// Create inserts an active spot and fills in its id and creation time.
func (r *SpotRepo) Create(ctx context.Context, s *domain.Spot) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO spots (user_id, name, lat, lng, position, country, country_code,
		                   state, city, full_address, postal_code)
		VALUES ($1, $2, $3, $4, `+fmt.Sprintf(point, "$4", "$3")+`, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, s.UserID, s.Name, s.Location.Lat, s.Location.Lng,
		s.Country, s.CountryCode, s.State, s.City, s.FullAddress, s.PostalCode,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert spot: %w", err)
	}
	s.Status = domain.StatusActive
	return nil
}

// GetByID returns an active spot.
func (r *SpotRepo) GetByID(ctx context.Context, id int64) (*domain.Spot, error) {
	s, err := scanSpot(r.db.Pool.QueryRow(ctx, `
		SELECT `+spotColumns+`
		FROM spots WHERE id = $1 AND is_active AND NOT is_deleted
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// ListByUser returns the user's active spots, newest first.
func (r *SpotRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Spot, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+spotColumns+`
		FROM spots
		WHERE user_id = $1 AND is_active AND NOT is_deleted
		ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []domain.Spot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, *s)
	}
	return spots, rows.Err()
}

// SoftDelete flips an active spot to deleted and returns it.
func (r *SpotRepo) SoftDelete(ctx context.Context, id int64) (*domain.Spot, error) {
	s, err := scanSpot(r.db.Pool.QueryRow(ctx, `
		UPDATE spots SET is_active = FALSE, is_deleted = TRUE
		WHERE id = $1 AND is_active AND NOT is_deleted
		RETURNING `+spotColumns, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// ExistsNearbyForUser reports whether userID owns an active spot within
// radiusKm of center, using PostGIS ST_DWithin on the geography column.
func (r *SpotRepo) ExistsNearbyForUser(ctx context.Context, userID int64, center domain.GeoPoint, radiusKm float64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM spots
			WHERE user_id = $1 AND is_active AND NOT is_deleted
			  AND ST_DWithin(position, `+fmt.Sprintf(point, "$2", "$3")+`, $4)
		)
	`, userID, center.Lng, center.Lat, radiusKm*1000).Scan(&exists)
	return exists, err
}

// ListNearby returns the coordinates of every active spot within radiusKm
// of center, ordered by id.
func (r *SpotRepo) ListNearby(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.GeoPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT lat, lng
		FROM spots
		WHERE is_active AND NOT is_deleted
		  AND ST_DWithin(position, `+fmt.Sprintf(point, "$1", "$2")+`, $3)
		ORDER BY id
	`, center.Lng, center.Lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []domain.GeoPoint{}
	for rows.Next() {
		var p domain.GeoPoint
		if err := rows.Scan(&p.Lat, &p.Lng); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
