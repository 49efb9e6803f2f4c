package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

func (f *fixture) carpool(t *testing.T, driver session.Identity, seats int) *models.Carpool {
	t.Helper()
	c, err := f.engine.PostCarpool(f.ctx, driver, CarpoolInput{
		StartPoint: "North Campus", Destination: "Airport", Seats: seats, Price: 12.5,
		Date: "2025-09-12", Time: "07:30",
		Stops: []StopInput{{Name: "Main Street", ETA: "07:45"}},
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) event(t *testing.T, organizer session.Identity, max int) *models.Event {
	t.Helper()
	ev, err := f.engine.CreateEvent(f.ctx, organizer, EventInput{
		Name: "Game Night", Location: "Commons", Date: "2025-09-20", Time: "19:00",
		MaxParticipants: max, Type: "Social",
	})
	require.NoError(t, err)
	return ev
}

func TestCarpoolScenario(t *testing.T) {
	f := newFixture(t)
	driver := f.user(t, "driver", models.RoleStudent)
	s1 := f.user(t, "s1", models.RoleStudent)
	s2 := f.user(t, "s2", models.RoleStudent)

	c := f.carpool(t, driver, 1)

	r1, err := f.engine.RequestToJoinCarpool(f.ctx, s1, c.ID)
	require.NoError(t, err)
	r2, err := f.engine.RequestToJoinCarpool(f.ctx, s2, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.countMessages(t, driver.UserID, "requested to join your carpool"))

	_, err = f.engine.RespondToCarpoolRequest(f.ctx, driver, r1.ID, Accept)
	require.NoError(t, err)

	got, err := f.store.Repos().Carpools.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Seats)

	_, err = f.engine.RespondToCarpoolRequest(f.ctx, driver, r2.ID, Accept)
	require.ErrorIs(t, err, apperr.ErrPrecondition)

	got, err = f.store.Repos().Carpools.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Seats)

	still, err := f.store.Repos().CarpoolRequests.GetByID(f.ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, still.Status)
	assert.Empty(t, f.messages(t, s2.UserID))
	assert.Equal(t, []string{"Your carpool request has been accepted."}, f.messages(t, s1.UserID))

	// rejecting never touches seats
	_, err = f.engine.RespondToCarpoolRequest(f.ctx, driver, r2.ID, Reject)
	require.NoError(t, err)
	_, err = f.engine.RespondToCarpoolRequest(f.ctx, driver, r2.ID, Accept)
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)
}

func TestCarpoolJoinRules(t *testing.T) {
	f := newFixture(t)
	driver := f.user(t, "driver", models.RoleStudent)
	rider := f.user(t, "rider", models.RoleStudent)
	c := f.carpool(t, driver, 2)

	_, err := f.engine.RequestToJoinCarpool(f.ctx, driver, c.ID)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	_, err = f.engine.RequestToJoinCarpool(f.ctx, rider, c.ID)
	require.NoError(t, err)
	_, err = f.engine.RequestToJoinCarpool(f.ctx, rider, c.ID)
	assert.ErrorIs(t, err, apperr.ErrConstraint)
	assert.Equal(t, "you have already requested to join this carpool (request is pending)", apperr.Reason(err))
	assert.Equal(t, 1, f.countMessages(t, driver.UserID, "requested to join your carpool"))

	_, err = f.engine.RequestToJoinCarpool(f.ctx, rider, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.PostCarpool(f.ctx, driver, CarpoolInput{StartPoint: "a", Destination: "b", Seats: 0, Date: "2025-09-12", Time: "07:30"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	reqs, err := f.engine.ListCarpoolRequests(f.ctx, driver)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "rider", reqs[0].StudentUsername)

	_, err = f.engine.RespondToCarpoolRequest(f.ctx, rider, reqs[0].ID, Accept)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCarpoolSearchAndUpcoming(t *testing.T) {
	f := newFixture(t)
	driver := f.user(t, "driver", models.RoleStudent)
	rider := f.user(t, "rider", models.RoleStudent)
	c := f.carpool(t, driver, 2)

	found, err := f.engine.SearchCarpools(f.ctx, rider, CarpoolSearchInput{Start: "south", Destination: "air"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = f.engine.SearchCarpools(f.ctx, rider, CarpoolSearchInput{Start: "main street", Destination: "air"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "driver", found[0].DriverUsername)

	_, err = f.engine.SearchCarpools(f.ctx, rider, CarpoolSearchInput{Start: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req, err := f.engine.RequestToJoinCarpool(f.ctx, rider, c.ID)
	require.NoError(t, err)
	_, err = f.engine.RespondToCarpoolRequest(f.ctx, driver, req.ID, Accept)
	require.NoError(t, err)

	for _, who := range []session.Identity{driver, rider} {
		upcoming, err := f.engine.ListUpcomingCarpools(f.ctx, who)
		require.NoError(t, err)
		assert.Len(t, upcoming, 1, who.Username)
	}
}

func TestCarpoolEditAndRemoveNotifyPassengers(t *testing.T) {
	f := newFixture(t)
	driver := f.user(t, "driver", models.RoleStudent)
	rider := f.user(t, "rider", models.RoleStudent)
	pending := f.user(t, "pending", models.RoleStudent)
	c := f.carpool(t, driver, 3)

	req, err := f.engine.RequestToJoinCarpool(f.ctx, rider, c.ID)
	require.NoError(t, err)
	_, err = f.engine.RespondToCarpoolRequest(f.ctx, driver, req.ID, Accept)
	require.NoError(t, err)
	_, err = f.engine.RequestToJoinCarpool(f.ctx, pending, c.ID)
	require.NoError(t, err)

	edited, err := f.engine.EditCarpool(f.ctx, driver, c.ID, CarpoolInput{
		StartPoint: "South Campus", Destination: "Airport", Seats: 2, Price: 10,
		Date: "2025-09-12", Time: "08:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "South Campus", edited.StartPoint)
	assert.Equal(t, 1, f.countMessages(t, rider.UserID, "Carpool from South Campus to Airport has been updated."))
	assert.Empty(t, f.messages(t, pending.UserID))

	_, err = f.engine.EditCarpool(f.ctx, rider, c.ID, CarpoolInput{StartPoint: "a", Destination: "b", Date: "2025-09-12", Time: "08:00"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.engine.RemoveCarpool(f.ctx, driver, c.ID))
	assert.Equal(t, 1, f.countMessages(t, rider.UserID, "has been cancelled"))

	mine, err := f.engine.ListMyCarpools(f.ctx, driver)
	require.NoError(t, err)
	assert.Empty(t, mine)
	gone, err := f.store.Repos().CarpoolRequests.GetByID(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestEventCapacity(t *testing.T) {
	f := newFixture(t)
	org := f.user(t, "org", models.RoleStudent)
	a := f.user(t, "amy", models.RoleStudent)
	b := f.user(t, "ben", models.RoleStudent)
	ev := f.event(t, org, 1)
	assert.Equal(t, models.EventSocial, ev.Type)

	_, err := f.engine.RequestToJoinEvent(f.ctx, org, ev.ID)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	pa, err := f.engine.RequestToJoinEvent(f.ctx, a, ev.ID)
	require.NoError(t, err)
	pb, err := f.engine.RequestToJoinEvent(f.ctx, b, ev.ID)
	require.NoError(t, err)
	_, err = f.engine.RequestToJoinEvent(f.ctx, b, ev.ID)
	assert.ErrorIs(t, err, apperr.ErrConstraint)
	assert.Equal(t, "you have already requested to join this event (request is pending)", apperr.Reason(err))

	_, err = f.engine.RespondToEventRequest(f.ctx, org, pa.ID, Accept)
	require.NoError(t, err)

	_, err = f.engine.RespondToEventRequest(f.ctx, org, pb.ID, Accept)
	require.ErrorIs(t, err, apperr.ErrPrecondition)

	n, err := f.store.Repos().Participants.CountAccepted(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.engine.RequestToJoinEvent(f.ctx, f.user(t, "cal", models.RoleStudent), ev.ID)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	available, err := f.engine.ListAvailableEvents(f.ctx, b)
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = f.engine.RespondToEventRequest(f.ctx, org, pb.ID, Reject)
	require.NoError(t, err)
	assert.Equal(t, []string{"Your request to join the event 'Game Night' has been rejected."}, f.messages(t, b.UserID))
	assert.Equal(t, []string{"Your request to join the event 'Game Night' has been accepted."}, f.messages(t, a.UserID))

	upcoming, err := f.engine.ListUpcomingEvents(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, 1, upcoming[0].AcceptedCount)
	assert.Equal(t, "org", upcoming[0].OrganizerUsername)
}

func TestEventEditAndRemove(t *testing.T) {
	f := newFixture(t)
	org := f.user(t, "org", models.RoleStudent)
	a := f.user(t, "amy", models.RoleStudent)
	b := f.user(t, "ben", models.RoleStudent)
	ev := f.event(t, org, 3)

	for _, s := range []session.Identity{a, b} {
		p, err := f.engine.RequestToJoinEvent(f.ctx, s, ev.ID)
		require.NoError(t, err)
		_, err = f.engine.RespondToEventRequest(f.ctx, org, p.ID, Accept)
		require.NoError(t, err)
	}

	in := EventInput{Name: "Board Games", Location: "Commons", Date: "2025-09-21", Time: "18:00", MaxParticipants: 1}
	_, err := f.engine.EditEvent(f.ctx, org, ev.ID, in)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	in.MaxParticipants = 2
	edited, err := f.engine.EditEvent(f.ctx, org, ev.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.EventOther, edited.Type)
	for _, s := range []session.Identity{a, b} {
		assert.Equal(t, 1, f.countMessages(t, s.UserID, "The event 'Board Games' has been updated."))
	}

	in.Type = "karaoke"
	_, err = f.engine.EditEvent(f.ctx, org, ev.ID, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = f.engine.RemoveEvent(f.ctx, a, ev.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.engine.RemoveEvent(f.ctx, org, ev.ID))
	assert.Equal(t, 1, f.countMessages(t, a.UserID, "The event 'Board Games' has been cancelled."))

	mine, err := f.engine.ListMyEvents(f.ctx, org)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestNotificationsPullAndMarkRead(t *testing.T) {
	f := newFixture(t)
	driver := f.user(t, "driver", models.RoleStudent)
	rider := f.user(t, "rider", models.RoleStudent)
	c := f.carpool(t, driver, 1)

	_, err := f.engine.RequestToJoinCarpool(f.ctx, rider, c.ID)
	require.NoError(t, err)

	ns, err := f.engine.ListNotifications(f.ctx, driver)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, models.NotificationUnread, ns[0].Status)

	err = f.engine.MarkNotificationRead(f.ctx, rider, ns[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.engine.MarkNotificationRead(f.ctx, driver, ns[0].ID))
	ns, err = f.engine.ListNotifications(f.ctx, driver)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, ns[0].Status)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision(" Accept ")
	require.NoError(t, err)
	assert.Equal(t, Accept, d)

	_, err = ParseDecision("maybe")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = transition("visit request", models.StatusPending, Decision("maybe"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
