package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const propertyColumns = `id, homeowner_id, address, state, city, zipcode, bedrooms, kitchens, bathrooms,
	description, photo_path, rooms_available, visible`

type PropertyStore struct {
	db DBTX
}

func scanProperty(row pgx.Row) (models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.HomeownerID,
		&p.Address,
		&p.State,
		&p.City,
		&p.Zipcode,
		&p.Bedrooms,
		&p.Kitchens,
		&p.Bathrooms,
		&p.Description,
		&p.PhotoPath,
		&p.RoomsAvailable,
		&p.Visible,
	)
	return p, err
}

func (s *PropertyStore) Create(ctx context.Context, p models.Property) (*models.Property, error) {
	query := `
		INSERT INTO properties (homeowner_id, address, state, city, zipcode, bedrooms, kitchens, bathrooms,
			description, photo_path, rooms_available, visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + propertyColumns

	created, err := scanProperty(s.db.QueryRow(ctx, query,
		p.HomeownerID, p.Address, p.State, p.City, p.Zipcode, p.Bedrooms, p.Kitchens, p.Bathrooms,
		p.Description, p.PhotoPath, p.RoomsAvailable, p.Visible,
	))
	if err != nil {
		return nil, wrap("insert property", err)
	}
	return &created, nil
}

func (s *PropertyStore) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	return getOne(ctx, s.db, "get property", scanProperty, query, id)
}

func (s *PropertyStore) GetForUpdate(ctx context.Context, id int64) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 FOR UPDATE`
	return getOne(ctx, s.db, "lock property", scanProperty, query, id)
}

func (s *PropertyStore) ListByHomeowner(ctx context.Context, homeownerID int64) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE homeowner_id = $1 ORDER BY id`
	return getAll(ctx, s.db, "list properties by homeowner", scanProperty, query, homeownerID)
}

// Update leaves homeowner_id, rooms_available and visible alone.
func (s *PropertyStore) Update(ctx context.Context, p models.Property) error {
	query := `
		UPDATE properties
		SET address = $2, state = $3, city = $4, zipcode = $5, bedrooms = $6, kitchens = $7,
			bathrooms = $8, description = $9, photo_path = $10
		WHERE id = $1`

	_, err := exec(ctx, s.db, "update property", query,
		p.ID, p.Address, p.State, p.City, p.Zipcode, p.Bedrooms, p.Kitchens, p.Bathrooms, p.Description, p.PhotoPath,
	)
	return err
}

func (s *PropertyStore) SetAvailability(ctx context.Context, id int64, roomsAvailable int, visible bool) error {
	query := `UPDATE properties SET rooms_available = $2, visible = $3 WHERE id = $1`
	_, err := exec(ctx, s.db, "set property availability", query, id, roomsAvailable, visible)
	return err
}

// Delete relies on ON DELETE CASCADE for visits, leases, maintenance
// requests and bookmarks.
func (s *PropertyStore) Delete(ctx context.Context, id int64) error {
	_, err := exec(ctx, s.db, "delete property", `DELETE FROM properties WHERE id = $1`, id)
	return err
}

func (s *PropertyStore) Search(ctx context.Context, f models.PropertySearch) ([]models.Property, error) {
	b := psql.Select(propertyColumns).
		From("properties p").
		Where(sq.Eq{"p.visible": true, "p.state": f.State}).
		Where("NOT EXISTS (SELECT 1 FROM leases l WHERE l.property_id = p.id AND l.tenant_id = ? AND l.status = 'active')", f.StudentID).
		OrderBy("p.id")

	if f.City != "" {
		b = b.Where(sq.ILike{"p.city": "%" + f.City + "%"})
	}
	if f.Bedrooms != nil {
		b = b.Where(sq.Eq{"p.bedrooms": *f.Bedrooms})
	}

	return getAllBuilt(ctx, s.db, "search properties", scanProperty, b)
}

type BookmarkStore struct {
	db DBTX
}

func (s *BookmarkStore) Exists(ctx context.Context, studentID, propertyID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookmarks
			WHERE student_id = $1 AND property_id = $2
		)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, studentID, propertyID).Scan(&exists); err != nil {
		return false, wrap("check bookmark", err)
	}
	return exists, nil
}

// Add is idempotent.
func (s *BookmarkStore) Add(ctx context.Context, studentID, propertyID int64) error {
	query := `
		INSERT INTO bookmarks (student_id, property_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, property_id) DO NOTHING`

	_, err := exec(ctx, s.db, "add bookmark", query, studentID, propertyID)
	return err
}

func (s *BookmarkStore) Remove(ctx context.Context, studentID, propertyID int64) error {
	query := `DELETE FROM bookmarks WHERE student_id = $1 AND property_id = $2`
	_, err := exec(ctx, s.db, "remove bookmark", query, studentID, propertyID)
	return err
}

// ListProperties returns bookmarked properties in the order they were saved.
func (s *BookmarkStore) ListProperties(ctx context.Context, studentID int64) ([]models.Property, error) {
	b := psql.Select(prefixed("p", propertyColumns)).
		From("bookmarks b").
		Join("properties p ON p.id = b.property_id").
		Where(sq.Eq{"b.student_id": studentID}).
		OrderBy("b.id")

	return getAllBuilt(ctx, s.db, "list bookmarks", scanProperty, b)
}
