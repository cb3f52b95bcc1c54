package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/template"
)

const idPrefix = "evt_"

// NewFromCreateRequest builds an event from the incoming DTO. When tpl is not
// nil, omitted capacity, price, visibility and type come from the template.
func NewFromCreateRequest(req CreateEventRequest, tpl *template.Template) (Event, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return Event{}, err
	}

	slug := ""
	if req.Slug != nil {
		slug = Slugify(*req.Slug)
	} else {
		slug = Slugify(req.Title)
	}
	if slug == "" {
		return Event{}, errs.Invalid("slug", "could not derive a slug from the title")
	}

	now := time.Now().UTC()
	e := Event{
		ID:          idPrefix + uuid.NewString(),
		Slug:        slug,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EventType:   strings.TrimSpace(req.EventType),
		Date:        date,
		Location:    strings.TrimSpace(req.Location),
		Price:       req.Price,
		IsPublic:    true,
		TemplateID:  req.TemplateID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if tpl != nil {
		capacity, price, isPublic := tpl.EventDefaults()
		e.Capacity = capacity
		if e.Price == nil {
			e.Price = &price
		}
		e.IsPublic = isPublic
		if e.EventType == "" {
			e.EventType = tpl.EventType
		}
	}

	// explicit values win over the template
	if req.Capacity != nil {
		e.Capacity = *req.Capacity
	}
	if req.IsPublic != nil {
		e.IsPublic = *req.IsPublic
	}

	if e.Title == "" {
		return Event{}, errs.Invalid("title", "is required")
	}
	if e.EventType == "" {
		return Event{}, errs.Invalid("event_type", "is required")
	}
	if e.Location == "" {
		return Event{}, errs.Invalid("location", "is required")
	}
	if e.Capacity <= 0 {
		return Event{}, errs.Invalid("capacity", "must be greater than 0")
	}
	if e.Price != nil && *e.Price < 0 {
		return Event{}, errs.Invalid("price", "must be at least 0")
	}
	return e, nil
}
