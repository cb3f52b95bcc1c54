package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

func TestCoordinator_DeleteEvent_Cascades(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := mustEvent(t, s, "Go Meetup", "2025-03-03")
	keep := mustEvent(t, s, "Keep", "2025-03-04")

	// 3 registrations with 2 attendees each
	for i := 0; i < 3; i++ {
		reg := mustRegistration(t, s, e.ID, "approved")
		mustAttendees(t, s, reg.ID, 2)
	}
	kept := mustRegistration(t, s, keep.ID, "pending")
	mustAttendees(t, s, kept.ID, 1)

	rep, err := s.Coordinator.DeleteEventReport(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, rep.Found)
	require.Equal(t, int64(1), rep.Events)
	require.Equal(t, int64(3), rep.Registrations)
	require.Equal(t, int64(6), rep.Attendees)

	require.Equal(t, 1, countRows(t, s, "events"))
	require.Equal(t, 1, countRows(t, s, "registrations"))
	require.Equal(t, 1, countRows(t, s, "attendees"))

	_, err = s.Events.GetByID(ctx, e.ID)
	require.ErrorIs(t, err, event.ErrNotFound)
}

func TestCoordinator_DeleteEvent_Missing(t *testing.T) {
	s := setupStore(t)

	found, err := s.Coordinator.DeleteEvent(context.Background(), "evt_missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestCoordinator_DeleteEvent_RollsBackOnFailure(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := mustEvent(t, s, "Go Meetup", "2025-03-03")
	reg := mustRegistration(t, s, e.ID, "approved")
	mustAttendees(t, s, reg.ID, 2)

	// make the last step of the cascade fail
	_, err := s.db.ExecContext(ctx, `CREATE TRIGGER fail_event_delete BEFORE DELETE ON events
		BEGIN SELECT RAISE(ABORT, 'event delete blocked'); END`)
	require.NoError(t, err)

	_, err = s.Coordinator.DeleteEvent(ctx, e.ID)
	require.Error(t, err)

	require.Equal(t, 1, countRows(t, s, "events"))
	require.Equal(t, 1, countRows(t, s, "registrations"), "registrations must survive a failed cascade")
	require.Equal(t, 2, countRows(t, s, "attendees"), "attendees must survive a failed cascade")
}

func TestCoordinator_DeleteRegistration(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := mustEvent(t, s, "Go Meetup", "2025-03-03")
	reg := mustRegistration(t, s, e.ID, "approved")
	other := mustRegistration(t, s, e.ID, "approved")
	mustAttendees(t, s, reg.ID, 3)
	mustAttendees(t, s, other.ID, 1)

	rep, err := s.Coordinator.DeleteRegistrationReport(ctx, reg.ID)
	require.NoError(t, err)
	require.True(t, rep.Found)
	require.Equal(t, int64(3), rep.Attendees)

	_, err = s.Registrations.GetByID(ctx, reg.ID)
	require.ErrorIs(t, err, registration.ErrNotFound)
	require.Equal(t, 1, countRows(t, s, "attendees"))

	found, err := s.Coordinator.DeleteRegistration(ctx, reg.ID)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCoordinator_DeleteEvent_LeavesNoOrphans(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		s := setupStore(t)
		ctx := context.Background()

		e := mustEvent(t, s, "Target", "2025-03-03")
		other := mustEvent(t, s, "Other", "2025-03-04")

		nRegs := rapid.IntRange(0, 4).Draw(r, "registrations")
		total := 0
		for i := 0; i < nRegs; i++ {
			reg := mustRegistration(t, s, e.ID, "pending")
			n := rapid.IntRange(0, 3).Draw(r, "attendees")
			mustAttendees(t, s, reg.ID, n)
			total += n
		}
		otherReg := mustRegistration(t, s, other.ID, "pending")
		mustAttendees(t, s, otherReg.ID, 1)

		rep, err := s.Coordinator.DeleteEventReport(ctx, e.ID)
		if err != nil {
			r.Fatalf("delete: %v", err)
		}
		if rep.Registrations != int64(nRegs) || rep.Attendees != int64(total) {
			r.Fatalf("report %+v, want %d registrations and %d attendees", rep, nRegs, total)
		}

		var orphans int
		err = s.db.QueryRow(`SELECT COUNT(*) FROM attendees a
			LEFT JOIN registrations r ON r.id = a.registration_id
			WHERE r.id IS NULL`).Scan(&orphans)
		if err != nil {
			r.Fatalf("orphan query: %v", err)
		}
		if orphans != 0 {
			r.Fatalf("%d orphaned attendees", orphans)
		}
	})
}
