package sqlstore

import (
	"context"

	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

// CapacityAggregator derives live occupancy from stored rows. It does not cache
// and takes no lock, so two concurrent reads may straddle a write.
type CapacityAggregator struct {
	registrations *RegistrationsRepo
	attendees     *AttendeesRepo
}

// SpotsUsed sums the attendees of every approved registration of the event.
func (c *CapacityAggregator) SpotsUsed(ctx context.Context, eventID string) (int, error) {
	approved := registration.StatusApproved

	regs, err := c.registrations.List(ctx, registration.ListRegistrationsFilter{
		EventID: &eventID,
		Status:  &approved,
	})
	if err != nil {
		return 0, err
	}

	used := 0
	for _, reg := range regs {
		n, err := c.attendees.CountByRegistration(ctx, reg.ID)
		if err != nil {
			return 0, err
		}
		used += n
	}
	return used, nil
}

func (c *CapacityAggregator) ForEvent(ctx context.Context, e event.Event) (event.Capacity, error) {
	used, err := c.SpotsUsed(ctx, e.ID)
	if err != nil {
		return event.Capacity{}, err
	}
	return event.NewCapacity(e, used), nil
}
