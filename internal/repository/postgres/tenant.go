package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const leaseColumns = `id, property_id, tenant_id, start_date, end_date, rent_amount, status`

// LeaseStore holds the tenancy rows that drive room availability.
type LeaseStore struct {
	db DBTX
}

func scanLease(row pgx.Row) (models.Lease, error) {
	var l models.Lease
	err := row.Scan(
		&l.ID,
		&l.PropertyID,
		&l.TenantID,
		&l.StartDate,
		&l.EndDate,
		&l.RentAmount,
		&l.Status,
	)
	return l, err
}

func (s *LeaseStore) Create(ctx context.Context, l models.Lease) (*models.Lease, error) {
	if l.Status == "" {
		l.Status = models.LeaseActive
	}
	query := `
		INSERT INTO leases (property_id, tenant_id, start_date, end_date, rent_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + leaseColumns

	created, err := scanLease(s.db.QueryRow(ctx, query,
		l.PropertyID, l.TenantID, l.StartDate, l.EndDate, l.RentAmount, l.Status,
	))
	if err != nil {
		return nil, wrap("insert lease", err)
	}
	return &created, nil
}

func (s *LeaseStore) GetByID(ctx context.Context, id int64) (*models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1`
	return getOne(ctx, s.db, "get lease", scanLease, query, id)
}

func (s *LeaseStore) SetStatus(ctx context.Context, id int64, status models.LeaseStatus) error {
	_, err := exec(ctx, s.db, "set lease status", `UPDATE leases SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (s *LeaseStore) CountActiveByProperty(ctx context.Context, propertyID int64) (int, error) {
	query := `SELECT count(*) FROM leases WHERE property_id = $1 AND status = 'active'`

	var n int
	if err := s.db.QueryRow(ctx, query, propertyID).Scan(&n); err != nil {
		return 0, wrap("count active leases", err)
	}
	return n, nil
}

func (s *LeaseStore) ListActiveByProperty(ctx context.Context, propertyID int64) ([]models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE property_id = $1 AND status = 'active' ORDER BY id`
	return getAll(ctx, s.db, "list property leases", scanLease, query, propertyID)
}

func (s *LeaseStore) ListActiveByTenant(ctx context.Context, tenantID int64) ([]models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE tenant_id = $1 AND status = 'active' ORDER BY id`
	return getAll(ctx, s.db, "list tenant leases", scanLease, query, tenantID)
}

// ListExpired compares YYYY-MM-DD strings, which sort as dates.
func (s *LeaseStore) ListExpired(ctx context.Context, today string) ([]models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE status = 'active' AND end_date < $1 ORDER BY id`
	return getAll(ctx, s.db, "list expired leases", scanLease, query, today)
}
