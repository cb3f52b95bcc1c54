package template

import (
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

type Template struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	EventType       string    `json:"event_type"`
	DefaultCapacity int       `json:"default_capacity"`
	DefaultPrice    float64   `json:"default_price"`
	Rules           Rules     `json:"rules"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var ErrNotFound = errs.NotFound("template")

type CreateTemplateRequest struct {
	Name            string   `json:"name" binding:"required,min=2,max=120"`
	EventType       string   `json:"event_type" binding:"required,max=80"`
	DefaultCapacity *int     `json:"default_capacity" binding:"required,min=0"`
	DefaultPrice    *float64 `json:"default_price" binding:"required,min=0"`
	Rules           *Rules   `json:"rules"`
}

// nil fields are left untouched. Rules are replaced as a whole.
type UpdateTemplateRequest struct {
	Name            *string  `json:"name" binding:"omitempty,min=2,max=120"`
	EventType       *string  `json:"event_type" binding:"omitempty,max=80"`
	DefaultCapacity *int     `json:"default_capacity" binding:"omitempty,min=0"`
	DefaultPrice    *float64 `json:"default_price" binding:"omitempty,min=0"`
	Rules           *Rules   `json:"rules"`
}

func (r CreateTemplateRequest) Validate() error {
	if r.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if r.EventType == "" {
		return errs.Invalid("event_type", "is required")
	}
	if r.DefaultCapacity == nil {
		return errs.Invalid("default_capacity", "is required")
	}
	if *r.DefaultCapacity < 0 {
		return errs.Invalid("default_capacity", "must be at least 0")
	}
	if r.DefaultPrice == nil {
		return errs.Invalid("default_price", "is required")
	}
	if *r.DefaultPrice < 0 {
		return errs.Invalid("default_price", "must be at least 0")
	}
	if r.Rules != nil {
		return r.Rules.Validate()
	}
	return nil
}

func (r UpdateTemplateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return errs.Invalid("name", "must not be empty")
	}
	if r.EventType != nil && *r.EventType == "" {
		return errs.Invalid("event_type", "must not be empty")
	}
	if r.DefaultCapacity != nil && *r.DefaultCapacity < 0 {
		return errs.Invalid("default_capacity", "must be at least 0")
	}
	if r.DefaultPrice != nil && *r.DefaultPrice < 0 {
		return errs.Invalid("default_price", "must be at least 0")
	}
	if r.Rules != nil {
		return r.Rules.Validate()
	}
	return nil
}

// EventDefaults resolves the capacity, price and visibility an event created
// from this template starts with. Fixed values win over defaults.
func (t Template) EventDefaults() (capacity int, price float64, isPublic bool) {
	capacity = t.DefaultCapacity
	if t.Rules.HasFixedCapacity {
		capacity = t.Rules.FixedCapacity
	}

	switch {
	case t.Rules.HasFixedPrice:
		price = t.Rules.FixedPrice
	case t.Rules.IsFree:
		price = 0
	default:
		price = t.DefaultPrice
	}

	return capacity, price, !t.Rules.IsPrivate
}
