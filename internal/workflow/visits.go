package workflow

import (
	"context"
	"fmt"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

// RequestVisit asks the homeowner for a viewing and tells them about it.
func (e *Engine) RequestVisit(ctx context.Context, id session.Identity, in VisitInput) (*models.Visit, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}

	var out *models.Visit
	err := e.transact(ctx, "request visit", func(u *unit) error {
		p, err := u.Properties.GetByID(ctx, in.PropertyID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("property")
		}
		if !p.Visible {
			return apperr.Precondition("this property has no rooms available")
		}

		v, err := u.Visits.Create(ctx, models.Visit{
			PropertyID:  p.ID,
			StudentID:   id.UserID,
			HomeownerID: p.HomeownerID,
			Type:        models.VisitType(in.Type),
			Date:        in.Date,
			Time:        in.Time,
			Note:        in.Note,
			Status:      models.StatusPending,
		})
		if err != nil {
			return err
		}
		out = v
		return u.notify(p.HomeownerID, fmt.Sprintf("New visit request for %s by %s.", p.Address, id.Username))
	})
	return out, err
}

// RespondToVisit accepts or rejects a pending visit and tells the student.
func (e *Engine) RespondToVisit(ctx context.Context, id session.Identity, visitID int64, d Decision) (*models.Visit, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}

	var out *models.Visit
	err := e.transact(ctx, "respond to visit", func(u *unit) error {
		v, err := u.Visits.GetByID(ctx, visitID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperr.NotFound("visit request")
		}
		if v.HomeownerID != id.UserID {
			return apperr.Forbidden("this visit request is not for one of your properties")
		}

		to, err := transition("visit request", v.Status, d)
		if err != nil {
			return err
		}
		if err := u.Visits.SetStatus(ctx, v.ID, to); err != nil {
			return err
		}
		v.Status = to
		out = v
		return u.notify(v.StudentID, fmt.Sprintf("Your visit request has been %s.", to))
	})
	return out, err
}

// ListUpcomingVisits returns the student's accepted visits.
func (e *Engine) ListUpcomingVisits(ctx context.Context, id session.Identity) ([]models.VisitView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	visits, err := e.store.Repos().Visits.ListAccepted(ctx, id.UserID)
	return read(e, "list upcoming visits", visits, err)
}

// ListVisitRequests returns every visit request on the homeowner's properties.
func (e *Engine) ListVisitRequests(ctx context.Context, id session.Identity) ([]models.VisitView, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	visits, err := e.store.Repos().Visits.ListForHomeowner(ctx, id.UserID)
	return read(e, "list visit requests", visits, err)
}

func (e *Engine) ListHomeownerUpcomingVisits(ctx context.Context, id session.Identity) ([]models.VisitView, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	visits, err := e.store.Repos().Visits.ListAccepted(ctx, id.UserID)
	return read(e, "list upcoming visits", visits, err)
}
