package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/availability"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
	"github.com/lalith-99/dormlink/internal/session"
)

func ownedCarpool(ctx context.Context, r repository.Repos, carpoolID, driverID int64) (*models.Carpool, error) {
	c, err := r.Carpools.GetForUpdate(ctx, carpoolID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("carpool")
	}
	if c.DriverID != driverID {
		return nil, apperr.Forbidden("you are not the driver of this carpool")
	}
	return c, nil
}

func (in CarpoolInput) carpool() models.Carpool {
	return models.Carpool{
		StartPoint:  strings.TrimSpace(in.StartPoint),
		Destination: strings.TrimSpace(in.Destination),
		Seats:       in.Seats,
		Price:       in.Price,
		Date:        in.Date,
		Time:        in.Time,
		Stops:       in.stops(),
	}
}

func (e *Engine) PostCarpool(ctx context.Context, id session.Identity, in CarpoolInput) (*models.Carpool, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}
	if in.Seats < 1 {
		return nil, apperr.Validation("a carpool needs at least one seat")
	}

	c := in.carpool()
	c.DriverID = id.UserID

	var out *models.Carpool
	err := e.transact(ctx, "post carpool", func(u *unit) error {
		created, err := u.Carpools.Create(ctx, c)
		out = created
		return err
	})
	return out, err
}

// EditCarpool rewrites the ride and tells accepted passengers.
func (e *Engine) EditCarpool(ctx context.Context, id session.Identity, carpoolID int64, in CarpoolInput) (*models.Carpool, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}

	var out *models.Carpool
	err := e.transact(ctx, "edit carpool", func(u *unit) error {
		cur, err := ownedCarpool(ctx, u.Repos, carpoolID, id.UserID)
		if err != nil {
			return err
		}

		next := in.carpool()
		next.ID = cur.ID
		next.DriverID = cur.DriverID
		if err := u.Carpools.Update(ctx, next); err != nil {
			return err
		}
		out = &next

		passengers, err := u.CarpoolRequests.ListAcceptedStudents(ctx, cur.ID)
		if err != nil {
			return err
		}
		return u.notifyAll(passengers, fmt.Sprintf("Carpool from %s to %s has been updated.", next.StartPoint, next.Destination))
	})
	return out, err
}

// RemoveCarpool cancels a ride. Accepted passengers are told first.
func (e *Engine) RemoveCarpool(ctx context.Context, id session.Identity, carpoolID int64) error {
	if err := id.Require(models.RoleStudent); err != nil {
		return err
	}

	return e.transact(ctx, "remove carpool", func(u *unit) error {
		c, err := ownedCarpool(ctx, u.Repos, carpoolID, id.UserID)
		if err != nil {
			return err
		}
		passengers, err := u.CarpoolRequests.ListAcceptedStudents(ctx, c.ID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Carpool from %s to %s has been cancelled.", c.StartPoint, c.Destination)
		if err := u.notifyAll(passengers, msg); err != nil {
			return err
		}
		return u.Carpools.Delete(ctx, c.ID)
	})
}

func (e *Engine) ListMyCarpools(ctx context.Context, id session.Identity) ([]models.Carpool, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	carpools, err := e.store.Repos().Carpools.ListByDriver(ctx, id.UserID)
	return read(e, "list my carpools", carpools, err)
}

// SearchCarpools matches the start against the start point or any stop and
// the destination against the destination.
func (e *Engine) SearchCarpools(ctx context.Context, id session.Identity, in CarpoolSearchInput) ([]models.CarpoolView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}
	carpools, err := e.store.Repos().Carpools.Search(ctx, strings.TrimSpace(in.Start), strings.TrimSpace(in.Destination))
	return read(e, "search carpools", carpools, err)
}

func (e *Engine) RequestToJoinCarpool(ctx context.Context, id session.Identity, carpoolID int64) (*models.CarpoolRequest, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}

	var out *models.CarpoolRequest
	err := e.transact(ctx, "join carpool", func(u *unit) error {
		c, err := u.Carpools.GetByID(ctx, carpoolID)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("carpool")
		}
		if c.DriverID == id.UserID {
			return apperr.Precondition("you cannot join your own carpool")
		}
		existing, err := u.CarpoolRequests.Find(ctx, c.ID, id.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return alreadyRequested("carpool", existing.Status)
		}
		if c.Seats <= 0 {
			return apperr.Precondition("no seats left in this carpool")
		}

		req, err := u.CarpoolRequests.Create(ctx, models.CarpoolRequest{
			CarpoolID: c.ID,
			StudentID: id.UserID,
			Status:    models.StatusPending,
		})
		if err != nil {
			return err
		}
		out = req
		return u.notify(c.DriverID, fmt.Sprintf("%s requested to join your carpool from %s to %s.", id.Username, c.StartPoint, c.Destination))
	})
	return out, err
}

// ListCarpoolRequests returns join requests for every carpool the student drives.
func (e *Engine) ListCarpoolRequests(ctx context.Context, id session.Identity) ([]models.CarpoolRequestView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	reqs, err := e.store.Repos().CarpoolRequests.ListForDriver(ctx, id.UserID)
	return read(e, "list carpool requests", reqs, err)
}

// RespondToCarpoolRequest accepts or rejects a join request. Accepting takes
// exactly one seat and fails once none are left.
func (e *Engine) RespondToCarpoolRequest(ctx context.Context, id session.Identity, requestID int64, d Decision) (*models.CarpoolRequest, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}

	var out *models.CarpoolRequest
	err := e.transact(ctx, "respond to carpool request", func(u *unit) error {
		req, err := u.CarpoolRequests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFound("carpool request")
		}
		if _, err := ownedCarpool(ctx, u.Repos, req.CarpoolID, id.UserID); err != nil {
			return err
		}
		// re-read under the carpool lock
		if req, err = u.CarpoolRequests.GetByID(ctx, requestID); err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFound("carpool request")
		}

		to, err := transition("carpool request", req.Status, d)
		if err != nil {
			return err
		}
		if to == models.StatusAccepted {
			if err := availability.TakeCarpoolSeat(ctx, u.Repos, req.CarpoolID); err != nil {
				return err
			}
		}
		if err := u.CarpoolRequests.SetStatus(ctx, req.ID, to); err != nil {
			return err
		}
		req.Status = to
		out = req
		return u.notify(req.StudentID, fmt.Sprintf("Your carpool request has been %s.", to))
	})
	return out, err
}

// ListUpcomingCarpools returns rides the student drives or is an accepted
// passenger of.
func (e *Engine) ListUpcomingCarpools(ctx context.Context, id session.Identity) ([]models.CarpoolView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	carpools, err := e.store.Repos().Carpools.ListUpcoming(ctx, id.UserID)
	return read(e, "list upcoming carpools", carpools, err)
}
