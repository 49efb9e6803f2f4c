package models

import "time"

// Role decides which workflows a user can reach.
type Role string

const (
	RoleStudent   Role = "student"
	RoleHomeowner Role = "homeowner"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleHomeowner
}

// User is a registered account. PasswordHash is a bcrypt hash and is never
// serialized.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         Role   `json:"role"`
}

// Property is a listing owned by a homeowner.
//
// RoomsAvailable and Visible are derived: bedrooms minus active leases, and
// whether that number is positive. Only the availability engine writes them.
type Property struct {
	ID             int64  `json:"id"`
	HomeownerID    int64  `json:"homeowner_id"`
	Address        string `json:"address"`
	State          string `json:"state"`
	City           string `json:"city"`
	Zipcode        string `json:"zipcode"`
	Bedrooms       int    `json:"bedrooms"`
	Kitchens       int    `json:"kitchens"`
	Bathrooms      int    `json:"bathrooms"`
	Description    string `json:"description"`
	PhotoPath      string `json:"photo_path"`
	RoomsAvailable int    `json:"rooms_available"`
	Visible        bool   `json:"visible"`
}

// PropertySearch holds the filters a student can apply. State is required,
// the rest are optional.
type PropertySearch struct {
	StudentID int64
	State     string
	City      string
	Bedrooms  *int
}

type LeaseStatus string

const (
	LeaseActive     LeaseStatus = "active"
	LeaseTerminated LeaseStatus = "terminated"
)

// Lease binds one tenant to one property for a date range.
type Lease struct {
	ID         int64       `json:"id"`
	PropertyID int64       `json:"property_id"`
	TenantID   int64       `json:"tenant_id"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	RentAmount float64     `json:"rent_amount"`
	Status     LeaseStatus `json:"status"`
}

func (l *Lease) IsActive() bool {
	return l.Status == LeaseActive
}

// RequestStatus is the three-state lifecycle shared by visits, event join
// requests and carpool join requests.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

type VisitType string

const (
	VisitVirtual  VisitType = "virtual"
	VisitInPerson VisitType = "in_person"
)

// Visit is a student's request to view a property. An accepted visit is what
// makes the student eligible for a lease on that property.
type Visit struct {
	ID          int64         `json:"id"`
	PropertyID  int64         `json:"property_id"`
	StudentID   int64         `json:"student_id"`
	HomeownerID int64         `json:"homeowner_id"`
	Type        VisitType     `json:"visit_type"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Note        string        `json:"note"`
	Status      RequestStatus `json:"status"`
}

// VisitView is a visit joined with the property address and the student's
// username, as shown on dashboards.
type VisitView struct {
	Visit
	Address         string `json:"address"`
	StudentUsername string `json:"student_username"`
}

type MaintenanceStatus string

const (
	MaintenancePending  MaintenanceStatus = "pending"
	MaintenanceResolved MaintenanceStatus = "resolved"
)

type MaintenanceRequest struct {
	ID             int64             `json:"id"`
	PropertyID     int64             `json:"property_id"`
	TenantID       int64             `json:"tenant_id"`
	Description    string            `json:"description"`
	Location       string            `json:"location"`
	Date           string            `json:"date"`
	ResolutionDate string            `json:"resolution_date,omitempty"`
	Status         MaintenanceStatus `json:"status"`
}

// EventType tags a community event. It carries no behaviour.
type EventType string

const (
	EventSocial   EventType = "social"
	EventAcademic EventType = "academic"
	EventSports   EventType = "sports"
	EventPotluck  EventType = "potluck"
	EventOther    EventType = "other"
)

type Event struct {
	ID              int64     `json:"id"`
	OrganizerID     int64     `json:"organizer_id"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	MaxParticipants int       `json:"max_participants"`
	Description     string    `json:"description"`
	Type            EventType `json:"event_type"`
}

// EventView is an event with its accepted participant count and, when
// listed for a particular student, that student's request status.
type EventView struct {
	Event
	AcceptedCount     int            `json:"current_participants"`
	OrganizerUsername string         `json:"organizer"`
	MyStatus          *RequestStatus `json:"my_status,omitempty"`
}

type EventParticipant struct {
	ID        int64         `json:"id"`
	EventID   int64         `json:"event_id"`
	StudentID int64         `json:"student_id"`
	Status    RequestStatus `json:"status"`
}

// EventRequestView is a join request as the organizer sees it.
type EventRequestView struct {
	EventParticipant
	EventName       string `json:"event_name"`
	StudentUsername string `json:"student_username"`
}

// Stop is an intermediate pickup point on a carpool route.
type Stop struct {
	Name string `json:"name"`
	ETA  string `json:"eta"`
}

type Carpool struct {
	ID          int64   `json:"id"`
	DriverID    int64   `json:"driver_id"`
	StartPoint  string  `json:"start_point"`
	Destination string  `json:"destination"`
	Seats       int     `json:"seats"`
	Price       float64 `json:"price"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Stops       []Stop  `json:"stops"`
}

type CarpoolView struct {
	Carpool
	DriverUsername string `json:"driver"`
}

type CarpoolRequest struct {
	ID        int64         `json:"id"`
	CarpoolID int64         `json:"carpool_id"`
	StudentID int64         `json:"student_id"`
	Status    RequestStatus `json:"status"`
}

type CarpoolRequestView struct {
	CarpoolRequest
	StartPoint      string `json:"start_point"`
	Destination     string `json:"destination"`
	StudentUsername string `json:"student_username"`
}

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Notification is a message persisted for a user. Status can be changed
// through the API but no workflow reads it yet.
type Notification struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	Message   string             `json:"message"`
	Status    NotificationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// Roommate is another active tenant of the same property.
type Roommate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
