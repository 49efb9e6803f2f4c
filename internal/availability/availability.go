// Package availability recomputes the derived capacity fields: rooms left on
// a property, accepted seats on an event and seats left on a carpool.
//
// Every function takes the Repos of the caller's transaction so the
// recompute commits or rolls back together with the mutation that caused it.
package availability

import (
	"context"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
)

// RoomsAvailable derives rooms left and listing visibility from the number
// of bedrooms and active leases.
func RoomsAvailable(bedrooms, activeLeases int) (rooms int, visible bool) {
	rooms = bedrooms - activeLeases
	return rooms, rooms > 0
}

// Change describes a recompute: the values before and after.
type Change struct {
	Property      models.Property
	RoomsBefore   int
	VisibleBefore bool
}

// VisibilityFlipped reports whether the recompute listed or unlisted the property.
func (c Change) VisibilityFlipped() bool {
	return c.VisibleBefore != c.Property.Visible
}

// RecomputeProperty counts active leases and writes rooms_available and
// visible for the property.
func RecomputeProperty(ctx context.Context, r repository.Repos, propertyID int64) (*Change, error) {
	p, err := r.Properties.GetForUpdate(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("property")
	}

	active, err := r.Leases.CountActiveByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	change := &Change{RoomsBefore: p.RoomsAvailable, VisibleBefore: p.Visible}
	p.RoomsAvailable, p.Visible = RoomsAvailable(p.Bedrooms, active)
	if err := r.Properties.SetAvailability(ctx, p.ID, p.RoomsAvailable, p.Visible); err != nil {
		return nil, err
	}
	change.Property = *p
	return change, nil
}

// ReserveEventSlot fails unless the event can take one more accepted
// participant. It returns the accepted count before the reservation.
func ReserveEventSlot(ctx context.Context, r repository.Repos, e *models.Event) (int, error) {
	accepted, err := r.Participants.CountAccepted(ctx, e.ID)
	if err != nil {
		return 0, err
	}
	if accepted >= e.MaxParticipants {
		return accepted, apperr.Precondition("this event is already full")
	}
	return accepted, nil
}

// TakeCarpoolSeat decrements the carpool's seats by one, failing when none
// are left.
func TakeCarpoolSeat(ctx context.Context, r repository.Repos, carpoolID int64) error {
	taken, err := r.Carpools.DecrementSeat(ctx, carpoolID)
	if err != nil {
		return err
	}
	if !taken {
		return apperr.Precondition("no seats left in this carpool")
	}
	return nil
}
