package workflow

import (
	"strings"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,password"`
	Email    string `json:"email" validate:"required,emailshape"`
	Phone    string `json:"phone" validate:"required,phone10"`
	Role     string `json:"role" validate:"required,oneof=student homeowner"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PropertyInput struct {
	Address     string `json:"address" validate:"required"`
	State       string `json:"state" validate:"required"`
	City        string `json:"city" validate:"required"`
	Zipcode     string `json:"zipcode" validate:"required"`
	Bedrooms    int    `json:"bedrooms" validate:"gte=0"`
	Kitchens    int    `json:"kitchens" validate:"gte=0"`
	Bathrooms   int    `json:"bathrooms" validate:"gte=0"`
	Description string `json:"description" validate:"max=2000"`
	PhotoPath   string `json:"photo_path"`
}

type SearchInput struct {
	State    string `json:"state" form:"state" validate:"required"`
	City     string `json:"city" form:"city"`
	Bedrooms *int   `json:"bedrooms" form:"bedrooms" validate:"omitempty,gte=0"`
}

type VisitInput struct {
	PropertyID int64  `json:"property_id" validate:"required"`
	Type       string `json:"visit_type" validate:"required,oneof=virtual in_person"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	Note       string `json:"note" validate:"max=500"`
}

type LeaseInput struct {
	PropertyID int64   `json:"property_id" validate:"required"`
	StudentID  int64   `json:"student_id" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	RentAmount float64 `json:"rent_amount" validate:"gt=0"`
}

type MaintenanceInput struct {
	PropertyID  int64  `json:"property_id" validate:"required"`
	Description string `json:"description" validate:"required,max=1000"`
	Location    string `json:"location" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

type ResolveInput struct {
	ResolutionDate string `json:"resolution_date" validate:"required,datetime=2006-01-02"`
}

type EventInput struct {
	Name            string `json:"name" validate:"required"`
	Location        string `json:"location" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	MaxParticipants int    `json:"max_participants" validate:"gte=1"`
	Description     string `json:"description" validate:"max=2000"`
	Type            string `json:"event_type"`
}

type StopInput struct {
	Name string `json:"name" validate:"required"`
	ETA  string `json:"eta" validate:"required,datetime=15:04"`
}

type CarpoolInput struct {
	StartPoint  string      `json:"start_point" validate:"required"`
	Destination string      `json:"destination" validate:"required"`
	Seats       int         `json:"seats" validate:"gte=0"`
	Price       float64     `json:"price" validate:"gte=0"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string      `json:"time" validate:"required,datetime=15:04"`
	Stops       []StopInput `json:"stops" validate:"dive"`
}

type CarpoolSearchInput struct {
	Start       string `json:"start" form:"start" validate:"required"`
	Destination string `json:"destination" form:"destination" validate:"required"`
}

// ParseEventType maps free-form input onto an event type. Empty input is
// "other"; anything unrecognised is rejected.
func ParseEventType(s string) (models.EventType, error) {
	t := models.EventType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return models.EventOther, nil
	case models.EventSocial, models.EventAcademic, models.EventSports, models.EventPotluck, models.EventOther:
		return t, nil
	default:
		return "", apperr.Validationf("unknown event type %q", s)
	}
}

func (in CarpoolInput) stops() []models.Stop {
	out := make([]models.Stop, 0, len(in.Stops))
	for _, s := range in.Stops {
		out = append(out, models.Stop{Name: strings.TrimSpace(s.Name), ETA: s.ETA})
	}
	return out
}

func (in PropertyInput) apply(p *models.Property) {
	p.Address = strings.TrimSpace(in.Address)
	p.State = strings.TrimSpace(in.State)
	p.City = strings.TrimSpace(in.City)
	p.Zipcode = strings.TrimSpace(in.Zipcode)
	p.Bedrooms = in.Bedrooms
	p.Kitchens = in.Kitchens
	p.Bathrooms = in.Bathrooms
	p.Description = in.Description
	p.PhotoPath = in.PhotoPath
}
