package attendee

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

type Attendee struct {
	ID             string    `json:"id"`
	RegistrationID string    `json:"registration_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
}

var ErrNotFound = errs.NotFound("attendee")

type CreateAttendeeRequest struct {
	RegistrationID string `json:"registration_id" binding:"required"`
	Name           string `json:"name" binding:"required,min=1,max=120"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required,min=3,max=40"`
}

type UpdateAttendeeRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=120"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,min=3,max=40"`
}

func NewFromCreateRequest(req CreateAttendeeRequest) (Attendee, error) {
	a := Attendee{
		ID:             "att_" + uuid.NewString(),
		RegistrationID: strings.TrimSpace(req.RegistrationID),
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		CreatedAt:      time.Now().UTC(),
	}

	switch {
	case a.RegistrationID == "":
		return Attendee{}, errs.Invalid("registration_id", "is required")
	case a.Name == "":
		return Attendee{}, errs.Invalid("name", "is required")
	case a.Email == "":
		return Attendee{}, errs.Invalid("email", "is required")
	case a.Phone == "":
		return Attendee{}, errs.Invalid("phone", "is required")
	}
	return a, nil
}
