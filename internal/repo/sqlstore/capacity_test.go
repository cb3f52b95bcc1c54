package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCapacity_SpotsUsedCountsApprovedOnly(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := mustEvent(t, s, "Go Meetup", "2025-03-03")

	approved := mustRegistration(t, s, e.ID, "approved")
	mustAttendees(t, s, approved.ID, 2)
	pending := mustRegistration(t, s, e.ID, "pending")
	mustAttendees(t, s, pending.ID, 3)

	used, err := s.Capacity.SpotsUsed(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, 2, used)

	c, err := s.Capacity.ForEvent(ctx, e)
	require.NoError(t, err)
	require.Equal(t, 2, c.SpotsUsed)
	require.Equal(t, 8, c.SpotsLeft)
	require.False(t, c.IsFull)

	none, err := s.Capacity.SpotsUsed(ctx, "evt_missing")
	require.NoError(t, err)
	require.Zero(t, none)
}

func TestCapacity_SpotsUsedProperty(t *testing.T) {
	statuses := []string{"pending", "approved", "rejected", "confirmed", "declined"}

	rapid.Check(t, func(r *rapid.T) {
		s := setupStore(t)
		ctx := context.Background()
		e := mustEvent(t, s, "Event", "2025-03-03")

		want := 0
		n := rapid.IntRange(0, 5).Draw(r, "registrations")
		for i := 0; i < n; i++ {
			status := rapid.SampledFrom(statuses).Draw(r, "status")
			attendees := rapid.IntRange(0, 3).Draw(r, "attendees")

			reg := mustRegistration(t, s, e.ID, status)
			mustAttendees(t, s, reg.ID, attendees)

			if status == "approved" || status == "confirmed" {
				want += attendees
			}
		}

		got, err := s.Capacity.SpotsUsed(ctx, e.ID)
		if err != nil {
			r.Fatalf("spots used: %v", err)
		}
		if got != want {
			r.Fatalf("spots used = %d, want %d", got, want)
		}
	})
}
