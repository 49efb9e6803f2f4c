package repository

import (
	"context"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
)

// Conventions shared by every implementation:
//
//   - Single-row reads return nil, nil when the row does not exist.
//   - List reads return an empty slice, never nil, ordered by id unless the
//     method says otherwise.
//   - Uniqueness violations come back as one of the Err* constraint values
//     below; every other failure is an apperr storage error.

var (
	ErrUsernameTaken      = apperr.Constraint("username is already taken")
	ErrEmailTaken         = apperr.Constraint("email is already registered")
	ErrDuplicateEventJoin = apperr.Constraint("you have already requested to join this event")
	ErrDuplicateRideJoin  = apperr.Constraint("you have already requested to join this carpool")
)

type UserRepository interface {
	// Create inserts the user and returns it with ID populated.
	Create(ctx context.Context, u models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type PropertyRepository interface {
	Create(ctx context.Context, p models.Property) (*models.Property, error)
	GetByID(ctx context.Context, id int64) (*models.Property, error)
	// GetForUpdate is GetByID that also locks the row for the rest of the
	// enclosing transaction.
	GetForUpdate(ctx context.Context, id int64) (*models.Property, error)
	ListByHomeowner(ctx context.Context, homeownerID int64) ([]models.Property, error)
	// Update writes the descriptive columns. It never touches the derived
	// availability columns.
	Update(ctx context.Context, p models.Property) error
	SetAvailability(ctx context.Context, id int64, roomsAvailable int, visible bool) error
	// Delete removes the property and cascades to visits, leases,
	// maintenance requests and bookmarks.
	Delete(ctx context.Context, id int64) error
	// Search returns visible properties in the given state, excluding those
	// the student already actively leases.
	Search(ctx context.Context, f models.PropertySearch) ([]models.Property, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v models.Visit) (*models.Visit, error)
	GetByID(ctx context.Context, id int64) (*models.Visit, error)
	SetStatus(ctx context.Context, id int64, status models.RequestStatus) error
	// HasAccepted reports whether the student has an accepted visit for the property.
	HasAccepted(ctx context.Context, studentID, propertyID int64) (bool, error)
	// ListForHomeowner returns every visit request on the homeowner's properties.
	ListForHomeowner(ctx context.Context, homeownerID int64) ([]models.VisitView, error)
	// ListAccepted returns accepted visits where the user is the student or
	// the homeowner, ordered by date then time.
	ListAccepted(ctx context.Context, userID int64) ([]models.VisitView, error)
	// ListAcceptedStudents returns the distinct students holding an accepted
	// visit for the property.
	ListAcceptedStudents(ctx context.Context, propertyID int64) ([]models.User, error)
}

type LeaseRepository interface {
	Create(ctx context.Context, l models.Lease) (*models.Lease, error)
	GetByID(ctx context.Context, id int64) (*models.Lease, error)
	SetStatus(ctx context.Context, id int64, status models.LeaseStatus) error
	CountActiveByProperty(ctx context.Context, propertyID int64) (int, error)
	ListActiveByProperty(ctx context.Context, propertyID int64) ([]models.Lease, error)
	ListActiveByTenant(ctx context.Context, tenantID int64) ([]models.Lease, error)
	// ListExpired returns active leases whose end date is before today (YYYY-MM-DD).
	ListExpired(ctx context.Context, today string) ([]models.Lease, error)
}

type MaintenanceRepository interface {
	Create(ctx context.Context, m models.MaintenanceRequest) (*models.MaintenanceRequest, error)
	GetByID(ctx context.Context, id int64) (*models.MaintenanceRequest, error)
	Resolve(ctx context.Context, id int64, resolutionDate string) error
	ListByProperty(ctx context.Context, propertyID int64) ([]models.MaintenanceRequest, error)
	// ListForTenant returns requests on every property the tenant actively leases.
	ListForTenant(ctx context.Context, tenantID int64) ([]models.MaintenanceRequest, error)
}

type EventRepository interface {
	Create(ctx context.Context, e models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, e models.Event) error
	// Delete removes the event and its participant rows.
	Delete(ctx context.Context, id int64) error
	ListByOrganizer(ctx context.Context, organizerID int64) ([]models.EventView, error)
	// ListAvailable returns events with room left that the viewer does not
	// organize, each annotated with the viewer's request status.
	ListAvailable(ctx context.Context, viewerID int64) ([]models.EventView, error)
	// ListUpcoming returns events the user organizes or is accepted into.
	ListUpcoming(ctx context.Context, userID int64) ([]models.EventView, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, p models.EventParticipant) (*models.EventParticipant, error)
	GetByID(ctx context.Context, id int64) (*models.EventParticipant, error)
	Find(ctx context.Context, eventID, studentID int64) (*models.EventParticipant, error)
	SetStatus(ctx context.Context, id int64, status models.RequestStatus) error
	CountAccepted(ctx context.Context, eventID int64) (int, error)
	ListAcceptedStudents(ctx context.Context, eventID int64) ([]int64, error)
	ListForOrganizer(ctx context.Context, organizerID int64) ([]models.EventRequestView, error)
}

type CarpoolRepository interface {
	Create(ctx context.Context, c models.Carpool) (*models.Carpool, error)
	GetByID(ctx context.Context, id int64) (*models.Carpool, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Carpool, error)
	Update(ctx context.Context, c models.Carpool) error
	// Delete removes the carpool and its join requests.
	Delete(ctx context.Context, id int64) error
	// DecrementSeat takes one seat if any is left. It reports whether a seat
	// was taken.
	DecrementSeat(ctx context.Context, id int64) (bool, error)
	ListByDriver(ctx context.Context, driverID int64) ([]models.Carpool, error)
	// Search matches start against the start point or any stop name and
	// destination against the destination, case-insensitively, among
	// carpools with seats left.
	Search(ctx context.Context, start, destination string) ([]models.CarpoolView, error)
	// ListUpcoming returns carpools the user drives or is an accepted passenger of.
	ListUpcoming(ctx context.Context, userID int64) ([]models.CarpoolView, error)
}

type CarpoolRequestRepository interface {
	Create(ctx context.Context, r models.CarpoolRequest) (*models.CarpoolRequest, error)
	GetByID(ctx context.Context, id int64) (*models.CarpoolRequest, error)
	Find(ctx context.Context, carpoolID, studentID int64) (*models.CarpoolRequest, error)
	SetStatus(ctx context.Context, id int64, status models.RequestStatus) error
	ListAcceptedStudents(ctx context.Context, carpoolID int64) ([]int64, error)
	ListForDriver(ctx context.Context, driverID int64) ([]models.CarpoolRequestView, error)
}

type NotificationRepository interface {
	// Create persists an unread notification.
	Create(ctx context.Context, userID int64, message string) (*models.Notification, error)
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	// SetStatus updates a notification owned by userID. It reports whether a
	// row matched.
	SetStatus(ctx context.Context, id, userID int64, status models.NotificationStatus) (bool, error)
}

type BookmarkRepository interface {
	Exists(ctx context.Context, studentID, propertyID int64) (bool, error)
	Add(ctx context.Context, studentID, propertyID int64) error
	Remove(ctx context.Context, studentID, propertyID int64) error
	ListProperties(ctx context.Context, studentID int64) ([]models.Property, error)
}

// Repos groups one repository per entity.
type Repos struct {
	Users           UserRepository
	Properties      PropertyRepository
	Visits          VisitRepository
	Leases          LeaseRepository
	Maintenance     MaintenanceRepository
	Events          EventRepository
	Participants    ParticipantRepository
	Carpools        CarpoolRepository
	CarpoolRequests CarpoolRequestRepository
	Notifications   NotificationRepository
	Bookmarks       BookmarkRepository
}

// Store is the persistence gateway.
//
// Repos returns repositories whose calls each commit on their own.
// WithinTx runs fn against repositories bound to one transaction: it commits
// when fn returns nil and rolls back when fn returns an error or panics.
// fn must only use the Repos it is given.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(Repos) error) error
}
