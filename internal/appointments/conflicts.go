package appointments

import (
	"context"
	"fmt"

	"github.com/mvconsultorios/turnos-api/internal/availability"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// Mirror is the best-effort local cache of appointments. It may lag behind
// the repository or the other way around; the conflict checker consults both
// and treats a hit in either as booked.
type Mirror interface {
	Put(ctx context.Context, appt Appointment) error
	Get(ctx context.Context, id string) (*Appointment, error)
	HeldSlot(ctx context.Context, specialtyID int, date, slot string) (bool, error)
}

// Checker decides whether slots are free, reconciling the cache mirror with
// the repository.
type Checker struct {
	repo     Repository
	mirror   Mirror
	resolver *availability.Resolver
	logger   *logging.Logger
}

// NewChecker builds a conflict checker. mirror may be nil when no cache is
// configured.
func NewChecker(repo Repository, mirror Mirror, resolver *availability.Resolver, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{repo: repo, mirror: mirror, resolver: resolver, logger: logger}
}

// IsTimeSlotBooked reports whether a non-cancelled appointment holds the
// slot in either source. A cache failure is logged and ignored; a repository
// failure propagates.
func (c *Checker) IsTimeSlotBooked(ctx context.Context, specialtyID int, date, slot string) (bool, error) {
	if c.mirror != nil {
		held, err := c.mirror.HeldSlot(ctx, specialtyID, date, slot)
		if err != nil {
			c.logger.Warn("slot check: cache unavailable, falling through to store", "error", err)
		} else if held {
			return true, nil
		}
	}

	held, err := c.repo.ActiveForSlot(ctx, specialtyID, date, slot)
	if err != nil {
		return false, fmt.Errorf("slot check: %w", err)
	}
	return held, nil
}

// AvailableTimeSlots returns the resolver's hour sequence for the date minus
// slots already booked.
func (c *Checker) AvailableTimeSlots(ctx context.Context, specialtyID int, date string) ([]string, error) {
	hours, err := c.resolver.HoursForDate(ctx, specialtyID, date)
	if err != nil {
		return nil, err
	}
	free := make([]string, 0, len(hours))
	for _, h := range hours {
		booked, err := c.IsTimeSlotBooked(ctx, specialtyID, date, h)
		if err != nil {
			return nil, err
		}
		if !booked {
			free = append(free, h)
		}
	}
	return free, nil
}
