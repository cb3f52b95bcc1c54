package registration

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// legacy spellings still sent by older clients
var statusAliases = map[string]Status{
	"confirmed": StatusApproved,
	"declined":  StatusRejected,
}

// ParseStatus maps input onto the canonical vocabulary.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))

	switch Status(v) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(v), nil
	}
	if st, ok := statusAliases[v]; ok {
		return st, nil
	}
	return "", errs.Invalid("status", "must be one of pending, approved, rejected")
}

// CountsTowardCapacity reports whether the registration occupies spots.
func (s Status) CountsTowardCapacity() bool {
	return s == StatusApproved
}

type Registration struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Status     Status    `json:"status"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var ErrNotFound = errs.NotFound("registration")

type CreateRegistrationRequest struct {
	EventID    string   `json:"event_id" binding:"required"`
	Status     string   `json:"status" binding:"required"`
	TotalPrice *float64 `json:"total_price" binding:"required,min=0"`
}

type UpdateRegistrationRequest struct {
	Status     *string  `json:"status"`
	TotalPrice *float64 `json:"total_price" binding:"omitempty,min=0"`
}

type ListRegistrationsFilter struct {
	EventID *string
	Status  *Status
}

// A factory to build a Registration from the incoming DTO

func NewFromCreateRequest(req CreateRegistrationRequest) (Registration, error) {
	if strings.TrimSpace(req.EventID) == "" {
		return Registration{}, errs.Invalid("event_id", "is required")
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return Registration{}, err
	}
	if req.TotalPrice == nil {
		return Registration{}, errs.Invalid("total_price", "is required")
	}
	if *req.TotalPrice < 0 {
		return Registration{}, errs.Invalid("total_price", "must be at least 0")
	}

	now := time.Now().UTC()
	return Registration{
		ID:         "reg_" + uuid.NewString(),
		EventID:    req.EventID,
		Status:     status,
		TotalPrice: *req.TotalPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
