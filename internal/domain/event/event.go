package event

import (
	"encoding/json"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	EventType   string    `json:"event_type"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Price       *float64  `json:"price"`
	IsPublic    bool      `json:"is_public"`
	TemplateID  *string   `json:"template_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarshalJSON writes the date as a naive wall clock timestamp.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(e), Date: FormatDate(e.Date)})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	type alias Event
	aux := struct {
		*alias
		Date string `json:"date"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	d, err := ParseDate(aux.Date)
	if err != nil {
		return err
	}
	e.Date = d
	return nil
}

var ErrNotFound = errs.NotFound("event")

// with pointers if optional, it will be nil
type ListEventsFilter struct {
	Month      *int
	Year       *int
	EventType  *string
	TemplateID *string
	IsPublic   *bool
	Status     *Availability
}

type Availability string

const (
	Available Availability = "available"
	Full      Availability = "full"
)

func ParseAvailability(s string) (Availability, error) {
	switch Availability(s) {
	case Available, Full:
		return Availability(s), nil
	}
	return "", errs.Invalid("status", "must be one of available, full")
}

// FilterOptions lists the distinct values present in stored events.
type FilterOptions struct {
	EventTypes []string `json:"event_types"`
	Years      []int    `json:"years"`
	Months     []int    `json:"months"`
}

type CreateEventRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Slug        *string  `json:"slug" binding:"omitempty,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	EventType   string   `json:"event_type" binding:"omitempty,max=80"`
	Date        string   `json:"date" binding:"required"`
	Location    string   `json:"location" binding:"required,max=200"`
	Capacity    *int     `json:"capacity" binding:"omitempty,min=1"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	IsPublic    *bool    `json:"is_public"`
	TemplateID  *string  `json:"template_id"`
}

// Partial update, nil fields are left untouched. Description, price and
// template_id may also be sent as null to clear them.
type UpdateEventRequest struct {
	Title       *string           `json:"title" binding:"omitempty,min=1,max=200"`
	Slug        *string           `json:"slug" binding:"omitempty,max=200"`
	Description Nullable[string]  `json:"description"`
	EventType   *string           `json:"event_type" binding:"omitempty,min=1,max=80"`
	Date        *string           `json:"date"`
	Location    *string           `json:"location" binding:"omitempty,min=1,max=200"`
	Capacity    *int              `json:"capacity" binding:"omitempty,min=1"`
	Price       Nullable[float64] `json:"price"`
	IsPublic    *bool             `json:"is_public"`
	TemplateID  Nullable[string]  `json:"template_id"`
}

// Capacity is the live occupancy of one event.
type Capacity struct {
	EventID   string `json:"event_id"`
	Capacity  int    `json:"capacity"`
	SpotsUsed int    `json:"spotsUsed"`
	SpotsLeft int    `json:"spotsLeft"`
	IsFull    bool   `json:"isFull"`
}

func NewCapacity(e Event, used int) Capacity {
	left := e.Capacity - used
	if left < 0 {
		left = 0
	}
	return Capacity{
		EventID:   e.ID,
		Capacity:  e.Capacity,
		SpotsUsed: used,
		SpotsLeft: left,
		IsFull:    used >= e.Capacity,
	}
}
