package memory

import (
	"context"
	"time"

	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
)

type eventRepo struct{ base }

func (r eventRepo) Create(ctx context.Context, e models.Event) (*models.Event, error) {
	err := r.do(ctx, func(st *state) error {
		e.ID = st.next("events")
		st.events[e.ID] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r eventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var out *models.Event
	err := r.do(ctx, func(st *state) error {
		if e, ok := st.events[id]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r eventRepo) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r eventRepo) Update(ctx context.Context, e models.Event) error {
	return r.do(ctx, func(st *state) error {
		cur, ok := st.events[e.ID]
		if !ok {
			return nil
		}
		e.OrganizerID = cur.OrganizerID
		st.events[e.ID] = e
		return nil
	})
}

func (r eventRepo) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, func(st *state) error {
		delete(st.events, id)
		for pid, p := range st.participants {
			if p.EventID == id {
				delete(st.participants, pid)
			}
		}
		return nil
	})
}

func (r eventRepo) ListByOrganizer(ctx context.Context, organizerID int64) ([]models.EventView, error) {
	return r.views(ctx, 0, func(st *state, e models.Event) bool {
		return e.OrganizerID == organizerID
	})
}

func (r eventRepo) ListAvailable(ctx context.Context, viewerID int64) ([]models.EventView, error) {
	return r.views(ctx, viewerID, func(st *state, e models.Event) bool {
		return e.OrganizerID != viewerID && st.acceptedCount(e.ID) < e.MaxParticipants
	})
}

func (r eventRepo) ListUpcoming(ctx context.Context, userID int64) ([]models.EventView, error) {
	return r.views(ctx, 0, func(st *state, e models.Event) bool {
		if e.OrganizerID == userID {
			return true
		}
		p := st.findParticipant(e.ID, userID)
		return p != nil && p.Status == models.StatusAccepted
	})
}

// views lists matching events. A non-zero viewerID annotates each view with
// that student's request status.
func (r eventRepo) views(ctx context.Context, viewerID int64, keep func(*state, models.Event) bool) ([]models.EventView, error) {
	var out []models.EventView
	err := r.do(ctx, func(st *state) error {
		events := ordered(st.events, func(e models.Event) bool { return keep(st, e) })
		out = make([]models.EventView, 0, len(events))
		for _, e := range events {
			v := models.EventView{
				Event:             e,
				AcceptedCount:     st.acceptedCount(e.ID),
				OrganizerUsername: st.username(e.OrganizerID),
			}
			if viewerID != 0 {
				if p := st.findParticipant(e.ID, viewerID); p != nil {
					status := p.Status
					v.MyStatus = &status
				}
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (st *state) acceptedCount(eventID int64) int {
	n := 0
	for _, p := range st.participants {
		if p.EventID == eventID && p.Status == models.StatusAccepted {
			n++
		}
	}
	return n
}

func (st *state) findParticipant(eventID, studentID int64) *models.EventParticipant {
	for _, p := range st.participants {
		if p.EventID == eventID && p.StudentID == studentID {
			return &p
		}
	}
	return nil
}

type participantRepo struct{ base }

func (r participantRepo) Create(ctx context.Context, p models.EventParticipant) (*models.EventParticipant, error) {
	err := r.do(ctx, func(st *state) error {
		if st.findParticipant(p.EventID, p.StudentID) != nil {
			return repository.ErrDuplicateEventJoin
		}
		p.ID = st.next("event_participants")
		if p.Status == "" {
			p.Status = models.StatusPending
		}
		st.participants[p.ID] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r participantRepo) GetByID(ctx context.Context, id int64) (*models.EventParticipant, error) {
	var out *models.EventParticipant
	err := r.do(ctx, func(st *state) error {
		if p, ok := st.participants[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r participantRepo) Find(ctx context.Context, eventID, studentID int64) (*models.EventParticipant, error) {
	var out *models.EventParticipant
	err := r.do(ctx, func(st *state) error {
		out = st.findParticipant(eventID, studentID)
		return nil
	})
	return out, err
}

func (r participantRepo) SetStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	return r.do(ctx, func(st *state) error {
		if p, ok := st.participants[id]; ok {
			p.Status = status
			st.participants[id] = p
		}
		return nil
	})
}

func (r participantRepo) CountAccepted(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.do(ctx, func(st *state) error {
		n = st.acceptedCount(eventID)
		return nil
	})
	return n, err
}

func (r participantRepo) ListAcceptedStudents(ctx context.Context, eventID int64) ([]int64, error) {
	var out []int64
	err := r.do(ctx, func(st *state) error {
		accepted := ordered(st.participants, func(p models.EventParticipant) bool {
			return p.EventID == eventID && p.Status == models.StatusAccepted
		})
		out = make([]int64, 0, len(accepted))
		for _, p := range accepted {
			out = append(out, p.StudentID)
		}
		return nil
	})
	return out, err
}

func (r participantRepo) ListForOrganizer(ctx context.Context, organizerID int64) ([]models.EventRequestView, error) {
	var out []models.EventRequestView
	err := r.do(ctx, func(st *state) error {
		requests := ordered(st.participants, func(p models.EventParticipant) bool {
			return st.events[p.EventID].OrganizerID == organizerID
		})
		out = make([]models.EventRequestView, 0, len(requests))
		for _, p := range requests {
			out = append(out, models.EventRequestView{
				EventParticipant: p,
				EventName:        st.events[p.EventID].Name,
				StudentUsername:  st.username(p.StudentID),
			})
		}
		return nil
	})
	return out, err
}

type carpoolRepo struct{ base }

func (r carpoolRepo) Create(ctx context.Context, c models.Carpool) (*models.Carpool, error) {
	err := r.do(ctx, func(st *state) error {
		c.ID = st.next("carpools")
		c = cloneCarpool(c)
		st.carpools[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	c = cloneCarpool(c)
	return &c, nil
}

func (r carpoolRepo) GetByID(ctx context.Context, id int64) (*models.Carpool, error) {
	var out *models.Carpool
	err := r.do(ctx, func(st *state) error {
		if c, ok := st.carpools[id]; ok {
			c = cloneCarpool(c)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r carpoolRepo) GetForUpdate(ctx context.Context, id int64) (*models.Carpool, error) {
	return r.GetByID(ctx, id)
}

func (r carpoolRepo) Update(ctx context.Context, c models.Carpool) error {
	return r.do(ctx, func(st *state) error {
		cur, ok := st.carpools[c.ID]
		if !ok {
			return nil
		}
		c.DriverID = cur.DriverID
		st.carpools[c.ID] = cloneCarpool(c)
		return nil
	})
}

func (r carpoolRepo) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, func(st *state) error {
		delete(st.carpools, id)
		for rid, req := range st.carpoolRequests {
			if req.CarpoolID == id {
				delete(st.carpoolRequests, rid)
			}
		}
		return nil
	})
}

func (r carpoolRepo) DecrementSeat(ctx context.Context, id int64) (bool, error) {
	var taken bool
	err := r.do(ctx, func(st *state) error {
		c, ok := st.carpools[id]
		if !ok || c.Seats <= 0 {
			return nil
		}
		c.Seats--
		st.carpools[id] = c
		taken = true
		return nil
	})
	return taken, err
}

func (r carpoolRepo) ListByDriver(ctx context.Context, driverID int64) ([]models.Carpool, error) {
	var out []models.Carpool
	err := r.do(ctx, func(st *state) error {
		out = ordered(st.carpools, func(c models.Carpool) bool { return c.DriverID == driverID })
		for i := range out {
			out[i] = cloneCarpool(out[i])
		}
		return nil
	})
	return out, err
}

func (r carpoolRepo) Search(ctx context.Context, start, destination string) ([]models.CarpoolView, error) {
	return r.views(ctx, func(st *state, c models.Carpool) bool {
		if c.Seats <= 0 || !containsFold(c.Destination, destination) {
			return false
		}
		if containsFold(c.StartPoint, start) {
			return true
		}
		for _, s := range c.Stops {
			if containsFold(s.Name, start) {
				return true
			}
		}
		return false
	})
}

func (r carpoolRepo) ListUpcoming(ctx context.Context, userID int64) ([]models.CarpoolView, error) {
	return r.views(ctx, func(st *state, c models.Carpool) bool {
		if c.DriverID == userID {
			return true
		}
		req := st.findRideRequest(c.ID, userID)
		return req != nil && req.Status == models.StatusAccepted
	})
}

func (r carpoolRepo) views(ctx context.Context, keep func(*state, models.Carpool) bool) ([]models.CarpoolView, error) {
	var out []models.CarpoolView
	err := r.do(ctx, func(st *state) error {
		carpools := ordered(st.carpools, func(c models.Carpool) bool { return keep(st, c) })
		out = make([]models.CarpoolView, 0, len(carpools))
		for _, c := range carpools {
			out = append(out, models.CarpoolView{
				Carpool:        cloneCarpool(c),
				DriverUsername: st.username(c.DriverID),
			})
		}
		return nil
	})
	return out, err
}

func (st *state) findRideRequest(carpoolID, studentID int64) *models.CarpoolRequest {
	for _, req := range st.carpoolRequests {
		if req.CarpoolID == carpoolID && req.StudentID == studentID {
			return &req
		}
	}
	return nil
}

type carpoolRequestRepo struct{ base }

func (r carpoolRequestRepo) Create(ctx context.Context, req models.CarpoolRequest) (*models.CarpoolRequest, error) {
	err := r.do(ctx, func(st *state) error {
		if st.findRideRequest(req.CarpoolID, req.StudentID) != nil {
			return repository.ErrDuplicateRideJoin
		}
		req.ID = st.next("carpool_requests")
		if req.Status == "" {
			req.Status = models.StatusPending
		}
		st.carpoolRequests[req.ID] = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r carpoolRequestRepo) GetByID(ctx context.Context, id int64) (*models.CarpoolRequest, error) {
	var out *models.CarpoolRequest
	err := r.do(ctx, func(st *state) error {
		if req, ok := st.carpoolRequests[id]; ok {
			out = &req
		}
		return nil
	})
	return out, err
}

func (r carpoolRequestRepo) Find(ctx context.Context, carpoolID, studentID int64) (*models.CarpoolRequest, error) {
	var out *models.CarpoolRequest
	err := r.do(ctx, func(st *state) error {
		out = st.findRideRequest(carpoolID, studentID)
		return nil
	})
	return out, err
}

func (r carpoolRequestRepo) SetStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	return r.do(ctx, func(st *state) error {
		if req, ok := st.carpoolRequests[id]; ok {
			req.Status = status
			st.carpoolRequests[id] = req
		}
		return nil
	})
}

func (r carpoolRequestRepo) ListAcceptedStudents(ctx context.Context, carpoolID int64) ([]int64, error) {
	var out []int64
	err := r.do(ctx, func(st *state) error {
		accepted := ordered(st.carpoolRequests, func(req models.CarpoolRequest) bool {
			return req.CarpoolID == carpoolID && req.Status == models.StatusAccepted
		})
		out = make([]int64, 0, len(accepted))
		for _, req := range accepted {
			out = append(out, req.StudentID)
		}
		return nil
	})
	return out, err
}

func (r carpoolRequestRepo) ListForDriver(ctx context.Context, driverID int64) ([]models.CarpoolRequestView, error) {
	var out []models.CarpoolRequestView
	err := r.do(ctx, func(st *state) error {
		requests := ordered(st.carpoolRequests, func(req models.CarpoolRequest) bool {
			return st.carpools[req.CarpoolID].DriverID == driverID
		})
		out = make([]models.CarpoolRequestView, 0, len(requests))
		for _, req := range requests {
			c := st.carpools[req.CarpoolID]
			out = append(out, models.CarpoolRequestView{
				CarpoolRequest:  req,
				StartPoint:      c.StartPoint,
				Destination:     c.Destination,
				StudentUsername: st.username(req.StudentID),
			})
		}
		return nil
	})
	return out, err
}

type notificationRepo struct{ base }

func (r notificationRepo) Create(ctx context.Context, userID int64, message string) (*models.Notification, error) {
	var n models.Notification
	err := r.do(ctx, func(st *state) error {
		n = models.Notification{
			ID:        st.next("notifications"),
			UserID:    userID,
			Message:   message,
			Status:    models.NotificationUnread,
			CreatedAt: time.Now().UTC(),
		}
		st.notifications[n.ID] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r notificationRepo) ListByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	var out []models.Notification
	err := r.do(ctx, func(st *state) error {
		asc := ordered(st.notifications, func(n models.Notification) bool { return n.UserID == userID })
		out = make([]models.Notification, len(asc))
		for i, n := range asc {
			out[len(asc)-1-i] = n
		}
		return nil
	})
	return out, err
}

func (r notificationRepo) SetStatus(ctx context.Context, id, userID int64, status models.NotificationStatus) (bool, error) {
	var matched bool
	err := r.do(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return nil
		}
		n.Status = status
		st.notifications[id] = n
		matched = true
		return nil
	})
	return matched, err
}
