package workflow

import (
	"context"
	"fmt"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

// SubmitMaintenance files a request on a property the student leases. The
// homeowner and the other tenants are told about it.
func (e *Engine) SubmitMaintenance(ctx context.Context, id session.Identity, in MaintenanceInput) (*models.MaintenanceRequest, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}

	var out *models.MaintenanceRequest
	err := e.transact(ctx, "submit maintenance", func(u *unit) error {
		p, err := u.Properties.GetByID(ctx, in.PropertyID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("property")
		}

		leases, err := u.Leases.ListActiveByProperty(ctx, p.ID)
		if err != nil {
			return err
		}
		var others []int64
		isTenant := false
		for _, l := range leases {
			if l.TenantID == id.UserID {
				isTenant = true
				continue
			}
			others = append(others, l.TenantID)
		}
		if !isTenant {
			return apperr.Precondition("you can only report issues for a property you lease")
		}

		m, err := u.Maintenance.Create(ctx, models.MaintenanceRequest{
			PropertyID:  p.ID,
			TenantID:    id.UserID,
			Description: in.Description,
			Location:    in.Location,
			Date:        in.Date,
			Status:      models.MaintenancePending,
		})
		if err != nil {
			return err
		}
		out = m

		msg := fmt.Sprintf("New maintenance request from tenant %s: %s (Date: %s).", id.Username, in.Description, in.Date)
		if err := u.notify(p.HomeownerID, msg); err != nil {
			return err
		}
		return u.notifyAll(others, fmt.Sprintf("A new maintenance request was submitted: %s.", in.Description))
	})
	return out, err
}

// ResolveMaintenance marks a request resolved and tells every tenant of the
// property, including the one who filed it.
func (e *Engine) ResolveMaintenance(ctx context.Context, id session.Identity, requestID int64, in ResolveInput) (*models.MaintenanceRequest, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}

	var out *models.MaintenanceRequest
	err := e.transact(ctx, "resolve maintenance", func(u *unit) error {
		m, err := u.Maintenance.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("maintenance request")
		}
		if _, err := ownedProperty(ctx, u.Repos, m.PropertyID, id.UserID); err != nil {
			return err
		}
		if m.Status == models.MaintenanceResolved {
			return apperr.Precondition("this maintenance request is already resolved")
		}
		if in.ResolutionDate < m.Date {
			return apperr.Validation("resolution date must not be before the request date")
		}

		if err := u.Maintenance.Resolve(ctx, m.ID, in.ResolutionDate); err != nil {
			return err
		}
		m.Status = models.MaintenanceResolved
		m.ResolutionDate = in.ResolutionDate
		out = m

		leases, err := u.Leases.ListActiveByProperty(ctx, m.PropertyID)
		if err != nil {
			return err
		}
		recipients := []int64{m.TenantID}
		for _, l := range leases {
			if l.TenantID != m.TenantID {
				recipients = append(recipients, l.TenantID)
			}
		}
		return u.notifyAll(recipients, fmt.Sprintf("Maintenance issue resolved on %s.", in.ResolutionDate))
	})
	return out, err
}

// ListMyMaintenance returns requests on every property the student leases.
func (e *Engine) ListMyMaintenance(ctx context.Context, id session.Identity) ([]models.MaintenanceRequest, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	reqs, err := e.store.Repos().Maintenance.ListForTenant(ctx, id.UserID)
	return read(e, "list maintenance", reqs, err)
}

func (e *Engine) ListPropertyMaintenance(ctx context.Context, id session.Identity, propertyID int64) ([]models.MaintenanceRequest, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}

	r := e.store.Repos()
	p, err := r.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return read[[]models.MaintenanceRequest](e, "list property maintenance", nil, err)
	}
	if p == nil {
		return nil, apperr.NotFound("property")
	}
	if p.HomeownerID != id.UserID {
		return nil, apperr.Forbidden("you do not own this property")
	}

	reqs, err := r.Maintenance.ListByProperty(ctx, propertyID)
	return read(e, "list property maintenance", reqs, err)
}
