package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/availability"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

// Tenancy is a lease together with the property it covers.
type Tenancy struct {
	Lease    models.Lease    `json:"lease"`
	Property models.Property `json:"property"`
}

// ListLeaseCandidates returns students with an accepted visit for the
// property who are not already tenants of it.
func (e *Engine) ListLeaseCandidates(ctx context.Context, id session.Identity, propertyID int64) ([]models.User, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}

	r := e.store.Repos()
	p, err := r.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return read[[]models.User](e, "list lease candidates", nil, err)
	}
	if p == nil {
		return nil, apperr.NotFound("property")
	}
	if p.HomeownerID != id.UserID {
		return nil, apperr.Forbidden("you do not own this property")
	}

	students, err := r.Visits.ListAcceptedStudents(ctx, propertyID)
	if err != nil {
		return read[[]models.User](e, "list lease candidates", nil, err)
	}
	leases, err := r.Leases.ListActiveByProperty(ctx, propertyID)
	if err != nil {
		return read[[]models.User](e, "list lease candidates", nil, err)
	}

	tenant := make(map[int64]bool, len(leases))
	for _, l := range leases {
		tenant[l.TenantID] = true
	}
	out := make([]models.User, 0, len(students))
	for _, s := range students {
		if !tenant[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

// AddTenant creates an active lease for a student who has an accepted visit
// for the property, then recomputes the property's availability.
func (e *Engine) AddTenant(ctx context.Context, id session.Identity, in LeaseInput) (*models.Lease, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}
	if in.EndDate < in.StartDate {
		return nil, apperr.Validation("end date must not be before start date")
	}

	var out *models.Lease
	err := e.transact(ctx, "add tenant", func(u *unit) error {
		p, err := ownedProperty(ctx, u.Repos, in.PropertyID, id.UserID)
		if err != nil {
			return err
		}

		student, err := u.Users.GetByID(ctx, in.StudentID)
		if err != nil {
			return err
		}
		if student == nil || student.Role != models.RoleStudent {
			return apperr.NotFound("student")
		}

		visited, err := u.Visits.HasAccepted(ctx, student.ID, p.ID)
		if err != nil {
			return err
		}
		if !visited {
			return apperr.Precondition("the student needs an accepted visit for this property before a lease can be created")
		}

		leases, err := u.Leases.ListActiveByProperty(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, l := range leases {
			if l.TenantID == student.ID {
				return apperr.Precondition("the student is already a tenant of this property")
			}
		}
		if rooms, _ := availability.RoomsAvailable(p.Bedrooms, len(leases)); rooms <= 0 {
			return apperr.Precondition("this property has no rooms available")
		}

		lease, err := u.Leases.Create(ctx, models.Lease{
			PropertyID: p.ID,
			TenantID:   student.ID,
			StartDate:  in.StartDate,
			EndDate:    in.EndDate,
			RentAmount: in.RentAmount,
			Status:     models.LeaseActive,
		})
		if err != nil {
			return err
		}
		out = lease

		change, err := availability.RecomputeProperty(ctx, u.Repos, p.ID)
		if err != nil {
			return err
		}
		if err := u.notify(student.ID, fmt.Sprintf("You have been added as a tenant of property #%d at %s.", p.ID, p.Address)); err != nil {
			return err
		}
		return e.notifyVisibility(u, change)
	})
	return out, err
}

// TerminateLease ends an active lease early and frees the room.
func (e *Engine) TerminateLease(ctx context.Context, id session.Identity, leaseID int64) error {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return err
	}

	return e.transact(ctx, "terminate lease", func(u *unit) error {
		l, err := u.Leases.GetByID(ctx, leaseID)
		if err != nil {
			return err
		}
		if l == nil {
			return apperr.NotFound("lease")
		}
		p, err := ownedProperty(ctx, u.Repos, l.PropertyID, id.UserID)
		if err != nil {
			return err
		}
		if !l.IsActive() {
			return apperr.Precondition("this lease is already terminated")
		}

		return e.endLease(u, l, p, fmt.Sprintf("Your lease for property #%d at %s has been terminated.", p.ID, p.Address))
	})
}

// ExpireLeases terminates every active lease whose end date is before
// today. Each lease is ended in its own transaction; the count of leases
// ended is returned together with any failures.
func (e *Engine) ExpireLeases(ctx context.Context, today string) (int, error) {
	expired, err := e.store.Repos().Leases.ListExpired(ctx, today)
	if err != nil {
		return read(e, "expire leases", 0, err)
	}

	var (
		ended int
		errs  []error
	)
	for _, candidate := range expired {
		done := false
		err := e.transact(ctx, "expire lease", func(u *unit) error {
			l, err := u.Leases.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if l == nil || !l.IsActive() {
				return nil
			}
			p, err := u.Properties.GetForUpdate(ctx, l.PropertyID)
			if err != nil {
				return err
			}
			if p == nil {
				return nil
			}
			done = true
			return e.endLease(u, l, p, fmt.Sprintf("Your lease for property #%d at %s ended on %s.", p.ID, p.Address, l.EndDate))
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("lease %d: %w", candidate.ID, err))
			continue
		}
		if done {
			ended++
		}
	}

	if ended > 0 {
		e.logger.Info("expired leases", zap.Int("count", ended), zap.String("today", today))
	}
	return ended, errors.Join(errs...)
}

func (e *Engine) endLease(u *unit, l *models.Lease, p *models.Property, message string) error {
	if err := u.Leases.SetStatus(u.ctx, l.ID, models.LeaseTerminated); err != nil {
		return err
	}
	change, err := availability.RecomputeProperty(u.ctx, u.Repos, p.ID)
	if err != nil {
		return err
	}
	if err := u.notify(l.TenantID, message); err != nil {
		return err
	}
	return e.notifyVisibility(u, change)
}

// notifyVisibility tells the homeowner when a recompute listed or unlisted
// the property.
func (e *Engine) notifyVisibility(u *unit, c *availability.Change) error {
	if !c.VisibilityFlipped() {
		return nil
	}
	p := c.Property
	msg := fmt.Sprintf("Property #%d at %s is fully occupied and hidden from search.", p.ID, p.Address)
	if p.Visible {
		msg = fmt.Sprintf("Property #%d at %s has %d room(s) available and is listed again.", p.ID, p.Address, p.RoomsAvailable)
	}
	return u.notify(p.HomeownerID, msg)
}

// ListMyLeases returns the student's active leases with their properties.
func (e *Engine) ListMyLeases(ctx context.Context, id session.Identity) ([]Tenancy, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}

	r := e.store.Repos()
	leases, err := r.Leases.ListActiveByTenant(ctx, id.UserID)
	if err != nil {
		return read[[]Tenancy](e, "list leases", nil, err)
	}

	out := make([]Tenancy, 0, len(leases))
	for _, l := range leases {
		p, err := r.Properties.GetByID(ctx, l.PropertyID)
		if err != nil {
			return read[[]Tenancy](e, "list leases", nil, err)
		}
		if p == nil {
			continue
		}
		out = append(out, Tenancy{Lease: l, Property: *p})
	}
	return out, nil
}

// ListRoommates returns the other active tenants of a property the student
// leases.
func (e *Engine) ListRoommates(ctx context.Context, id session.Identity, propertyID int64) ([]models.Roommate, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}

	r := e.store.Repos()
	leases, err := r.Leases.ListActiveByProperty(ctx, propertyID)
	if err != nil {
		return read[[]models.Roommate](e, "list roommates", nil, err)
	}

	isTenant := false
	for _, l := range leases {
		if l.TenantID == id.UserID {
			isTenant = true
			break
		}
	}
	if !isTenant {
		return nil, apperr.Forbidden("you are not a tenant of this property")
	}

	out := make([]models.Roommate, 0, len(leases))
	for _, l := range leases {
		if l.TenantID == id.UserID {
			continue
		}
		u, err := r.Users.GetByID(ctx, l.TenantID)
		if err != nil {
			return read[[]models.Roommate](e, "list roommates", nil, err)
		}
		if u != nil {
			out = append(out, models.Roommate{Username: u.Username, Email: u.Email})
		}
	}
	return out, nil
}
