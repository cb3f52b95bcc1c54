package registration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    registration.Status
		wantErr bool
	}{
		{in: "pending", want: registration.StatusPending},
		{in: "approved", want: registration.StatusApproved},
		{in: "rejected", want: registration.StatusRejected},
		{in: "confirmed", want: registration.StatusApproved},
		{in: " Declined ", want: registration.StatusRejected},
		{in: "waitlisted", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := registration.ParseStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	price := 200.0

	reg, err := registration.NewFromCreateRequest(registration.CreateRegistrationRequest{
		EventID:    "evt_1",
		Status:     "confirmed",
		TotalPrice: &price,
	})
	require.NoError(t, err)
	require.Equal(t, registration.StatusApproved, reg.Status)
	require.True(t, reg.Status.CountsTowardCapacity())
	require.Contains(t, reg.ID, "reg_")

	negative := -1.0
	_, err = registration.NewFromCreateRequest(registration.CreateRegistrationRequest{
		EventID:    "evt_1",
		Status:     "pending",
		TotalPrice: &negative,
	})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}
