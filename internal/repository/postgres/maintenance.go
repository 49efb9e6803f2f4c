package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const maintenanceColumns = `id, property_id, tenant_id, description, location, request_date, resolution_date, status`

type MaintenanceStore struct {
	db DBTX
}

func scanMaintenance(row pgx.Row) (models.MaintenanceRequest, error) {
	var m models.MaintenanceRequest
	err := row.Scan(
		&m.ID,
		&m.PropertyID,
		&m.TenantID,
		&m.Description,
		&m.Location,
		&m.Date,
		&m.ResolutionDate,
		&m.Status,
	)
	return m, err
}

func (s *MaintenanceStore) Create(ctx context.Context, m models.MaintenanceRequest) (*models.MaintenanceRequest, error) {
	if m.Status == "" {
		m.Status = models.MaintenancePending
	}
	query := `
		INSERT INTO maintenance_requests (property_id, tenant_id, description, location, request_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + maintenanceColumns

	created, err := scanMaintenance(s.db.QueryRow(ctx, query,
		m.PropertyID, m.TenantID, m.Description, m.Location, m.Date, m.Status,
	))
	if err != nil {
		return nil, wrap("insert maintenance request", err)
	}
	return &created, nil
}

func (s *MaintenanceStore) GetByID(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_requests WHERE id = $1`
	return getOne(ctx, s.db, "get maintenance request", scanMaintenance, query, id)
}

func (s *MaintenanceStore) Resolve(ctx context.Context, id int64, resolutionDate string) error {
	query := `UPDATE maintenance_requests SET status = 'resolved', resolution_date = $2 WHERE id = $1`
	_, err := exec(ctx, s.db, "resolve maintenance request", query, id, resolutionDate)
	return err
}

func (s *MaintenanceStore) ListByProperty(ctx context.Context, propertyID int64) ([]models.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_requests WHERE property_id = $1 ORDER BY id`
	return getAll(ctx, s.db, "list property maintenance", scanMaintenance, query, propertyID)
}

func (s *MaintenanceStore) ListForTenant(ctx context.Context, tenantID int64) ([]models.MaintenanceRequest, error) {
	query := `
		SELECT ` + prefixed("m", maintenanceColumns) + `
		FROM maintenance_requests m
		WHERE m.property_id IN (
			SELECT property_id FROM leases
			WHERE tenant_id = $1 AND status = 'active'
		)
		ORDER BY m.id`
	return getAll(ctx, s.db, "list tenant maintenance", scanMaintenance, query, tenantID)
}
