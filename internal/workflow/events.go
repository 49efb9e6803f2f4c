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

func ownedEvent(ctx context.Context, r repository.Repos, eventID, organizerID int64) (*models.Event, error) {
	ev, err := r.Events.GetForUpdate(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperr.NotFound("event")
	}
	if ev.OrganizerID != organizerID {
		return nil, apperr.Forbidden("you did not organize this event")
	}
	return ev, nil
}

func (in EventInput) event() (models.Event, error) {
	t, err := ParseEventType(in.Type)
	if err != nil {
		return models.Event{}, err
	}
	return models.Event{
		Name:            strings.TrimSpace(in.Name),
		Location:        strings.TrimSpace(in.Location),
		Date:            in.Date,
		Time:            in.Time,
		MaxParticipants: in.MaxParticipants,
		Description:     in.Description,
		Type:            t,
	}, nil
}

func (e *Engine) CreateEvent(ctx context.Context, id session.Identity, in EventInput) (*models.Event, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}
	ev, err := in.event()
	if err != nil {
		return nil, err
	}
	ev.OrganizerID = id.UserID

	var out *models.Event
	err = e.transact(ctx, "create event", func(u *unit) error {
		created, err := u.Events.Create(ctx, ev)
		out = created
		return err
	})
	return out, err
}

// EditEvent updates an event and tells accepted participants. Capacity can
// not drop below the number already accepted.
func (e *Engine) EditEvent(ctx context.Context, id session.Identity, eventID int64, in EventInput) (*models.Event, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}
	next, err := in.event()
	if err != nil {
		return nil, err
	}

	var out *models.Event
	err = e.transact(ctx, "edit event", func(u *unit) error {
		ev, err := ownedEvent(ctx, u.Repos, eventID, id.UserID)
		if err != nil {
			return err
		}
		accepted, err := u.Participants.CountAccepted(ctx, ev.ID)
		if err != nil {
			return err
		}
		if next.MaxParticipants < accepted {
			return apperr.Preconditionf("%d participants are already accepted, capacity cannot be lower", accepted)
		}

		next.ID = ev.ID
		next.OrganizerID = ev.OrganizerID
		if err := u.Events.Update(ctx, next); err != nil {
			return err
		}
		out = &next

		students, err := u.Participants.ListAcceptedStudents(ctx, ev.ID)
		if err != nil {
			return err
		}
		return u.notifyAll(students, fmt.Sprintf("The event '%s' has been updated.", next.Name))
	})
	return out, err
}

// RemoveEvent cancels an event. Accepted participants are told first, then
// the event and its join requests are deleted.
func (e *Engine) RemoveEvent(ctx context.Context, id session.Identity, eventID int64) error {
	if err := id.Require(models.RoleStudent); err != nil {
		return err
	}

	return e.transact(ctx, "remove event", func(u *unit) error {
		ev, err := ownedEvent(ctx, u.Repos, eventID, id.UserID)
		if err != nil {
			return err
		}
		students, err := u.Participants.ListAcceptedStudents(ctx, ev.ID)
		if err != nil {
			return err
		}
		if err := u.notifyAll(students, fmt.Sprintf("The event '%s' has been cancelled.", ev.Name)); err != nil {
			return err
		}
		return u.Events.Delete(ctx, ev.ID)
	})
}

func (e *Engine) ListMyEvents(ctx context.Context, id session.Identity) ([]models.EventView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	events, err := e.store.Repos().Events.ListByOrganizer(ctx, id.UserID)
	return read(e, "list my events", events, err)
}

// ListAvailableEvents returns events with room left that the student does
// not organize, annotated with the student's own request status.
func (e *Engine) ListAvailableEvents(ctx context.Context, id session.Identity) ([]models.EventView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	events, err := e.store.Repos().Events.ListAvailable(ctx, id.UserID)
	return read(e, "list available events", events, err)
}

func (e *Engine) RequestToJoinEvent(ctx context.Context, id session.Identity, eventID int64) (*models.EventParticipant, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}

	var out *models.EventParticipant
	err := e.transact(ctx, "join event", func(u *unit) error {
		ev, err := u.Events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if ev == nil {
			return apperr.NotFound("event")
		}
		if ev.OrganizerID == id.UserID {
			return apperr.Precondition("you cannot join your own event")
		}
		existing, err := u.Participants.Find(ctx, ev.ID, id.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return alreadyRequested("event", existing.Status)
		}
		if _, err := availability.ReserveEventSlot(ctx, u.Repos, ev); err != nil {
			return err
		}

		p, err := u.Participants.Create(ctx, models.EventParticipant{
			EventID:   ev.ID,
			StudentID: id.UserID,
			Status:    models.StatusPending,
		})
		if err != nil {
			return err
		}
		out = p
		return u.notify(ev.OrganizerID, fmt.Sprintf("%s requested to join your event '%s'.", id.Username, ev.Name))
	})
	return out, err
}

// ListEventRequests returns join requests for every event the student organizes.
func (e *Engine) ListEventRequests(ctx context.Context, id session.Identity) ([]models.EventRequestView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	reqs, err := e.store.Repos().Participants.ListForOrganizer(ctx, id.UserID)
	return read(e, "list event requests", reqs, err)
}

// RespondToEventRequest accepts or rejects a join request. Accepting needs
// a free slot; the event row stays locked until commit so two accepts
// cannot both take the last one.
func (e *Engine) RespondToEventRequest(ctx context.Context, id session.Identity, participantID int64, d Decision) (*models.EventParticipant, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}

	var out *models.EventParticipant
	err := e.transact(ctx, "respond to event request", func(u *unit) error {
		p, err := u.Participants.GetByID(ctx, participantID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("event request")
		}
		ev, err := ownedEvent(ctx, u.Repos, p.EventID, id.UserID)
		if err != nil {
			return err
		}
		// re-read under the event lock
		if p, err = u.Participants.GetByID(ctx, participantID); err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("event request")
		}

		to, err := transition("event request", p.Status, d)
		if err != nil {
			return err
		}
		if to == models.StatusAccepted {
			if _, err := availability.ReserveEventSlot(ctx, u.Repos, ev); err != nil {
				return err
			}
		}
		if err := u.Participants.SetStatus(ctx, p.ID, to); err != nil {
			return err
		}
		p.Status = to
		out = p
		return u.notify(p.StudentID, fmt.Sprintf("Your request to join the event '%s' has been %s.", ev.Name, to))
	})
	return out, err
}

// ListUpcomingEvents returns events the student organizes or was accepted into.
func (e *Engine) ListUpcomingEvents(ctx context.Context, id session.Identity) ([]models.EventView, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	events, err := e.store.Repos().Events.ListUpcoming(ctx, id.UserID)
	return read(e, "list upcoming events", events, err)
}
