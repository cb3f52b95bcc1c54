package template

import (
	"time"

	"github.com/google/uuid"
)

const idPrefix = "tpl_"

func NewFromCreateRequest(req CreateTemplateRequest) Template {
	now := time.Now().UTC()

	t := Template{
		ID:        idPrefix + uuid.NewString(),
		Name:      req.Name,
		EventType: req.EventType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.DefaultCapacity != nil {
		t.DefaultCapacity = *req.DefaultCapacity
	}
	if req.DefaultPrice != nil {
		t.DefaultPrice = *req.DefaultPrice
	}
	if req.Rules != nil {
		t.Rules = req.Rules.Normalize()
	}
	return t
}
