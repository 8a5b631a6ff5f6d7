// Package availability decides whether the office attends a given specialty
// on a given date and which time slots exist that day. Rules apply in strict
// order: past dates are rejected, weekends are rejected unconditionally
// (even when an override exists for the date), then an active override wins
// over the specialty's weekly pattern, and finally same-day slots inside the
// booking lead time are dropped.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/mvconsultorios/turnos-api/internal/catalog"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// dayNames maps time.Weekday to the names used in the specialty catalog.
var dayNames = [7]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

// OverrideSource yields the effective override for a (specialty, date) pair,
// or nil when none applies. When several overlap, implementations return the
// first in storage order.
type OverrideSource interface {
	ActiveForDate(ctx context.Context, specialtyID int, date string) (*Override, error)
}

// Resolver answers date-availability and slot-enumeration queries.
type Resolver struct {
	overrides OverrideSource
	loc       *time.Location
	leadTime  time.Duration
	stride    time.Duration
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLeadTime sets how far ahead of now a same-day slot must start.
func WithLeadTime(d time.Duration) Option {
	return func(r *Resolver) { r.leadTime = d }
}

// WithStride sets the increment used when expanding override windows.
func WithStride(d time.Duration) Option {
	return func(r *Resolver) { r.stride = d }
}

// NewResolver builds a resolver over the given override source. A nil source
// means no overrides exist.
func NewResolver(overrides OverrideSource, loc *time.Location, opts ...Option) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	r := &Resolver{
		overrides: overrides,
		loc:       loc,
		leadTime:  30 * time.Minute,
		stride:    30 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsDateAvailable reports whether the specialty attends on the given date.
// Unknown specialties and malformed dates are simply unavailable.
func (r *Resolver) IsDateAvailable(ctx context.Context, specialtyID int, date string) (bool, error) {
	spec, ok := catalog.ByID(specialtyID)
	if !ok {
		return false, nil
	}
	// Note: spec.IsActive is deliberately not consulted here; deactivating a
	// specialty does not suppress its availability. See DESIGN.md.

	day, err := time.ParseInLocation(DateLayout, date, r.loc)
	if err != nil {
		return false, nil
	}

	if day.Before(r.today()) {
		return false, nil
	}

	// Weekends are closed no matter what. This check runs before the
	// override lookup on purpose: an override for a Saturday has no effect.
	wd := day.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false, nil
	}

	if r.overrides != nil {
		ov, err := r.overrides.ActiveForDate(ctx, specialtyID, date)
		if err != nil {
			return false, fmt.Errorf("availability: override lookup: %w", err)
		}
		if ov != nil {
			return true, nil
		}
	}

	return contains(spec.AvailableDays, dayNames[wd]), nil
}

// HoursForDate returns the ordered "HH:MM" slots offered on the given date.
// The sequence is empty when the date is unavailable; for today, slots that
// start within the booking lead time are dropped.
func (r *Resolver) HoursForDate(ctx context.Context, specialtyID int, date string) ([]string, error) {
	available, err := r.IsDateAvailable(ctx, specialtyID, date)
	if err != nil {
		return nil, err
	}
	if !available {
		return []string{}, nil
	}

	spec, _ := catalog.ByID(specialtyID)
	hours := spec.AvailableHours

	if r.overrides != nil {
		ov, err := r.overrides.ActiveForDate(ctx, specialtyID, date)
		if err != nil {
			return nil, fmt.Errorf("availability: override lookup: %w", err)
		}
		if ov != nil {
			hours = r.expandWindow(ov.StartTime, ov.EndTime)
		}
	}

	if r.isToday(date) {
		cutoff := r.now().In(r.loc).Add(r.leadTime).Format("15:04")
		filtered := make([]string, 0, len(hours))
		for _, h := range hours {
			// Lexicographic comparison is safe on zero-padded 24h "HH:MM".
			if h > cutoff {
				filtered = append(filtered, h)
			}
		}
		return filtered, nil
	}

	out := make([]string, len(hours))
	copy(out, hours)
	return out, nil
}

// expandWindow steps from start to end (end-exclusive) in stride increments.
// A reversed or empty window yields no slots rather than an error.
func (r *Resolver) expandWindow(start, end string) []string {
	startMin, okS := parseClock(start)
	endMin, okE := parseClock(end)
	if !okS || !okE {
		return []string{}
	}
	step := int(r.stride.Minutes())
	if step <= 0 {
		step = 30
	}
	slots := []string{}
	for m := startMin; m < endMin; m += step {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// IsToday reports whether the ISO date names the current calendar day.
func (r *Resolver) isToday(date string) bool {
	return date == r.now().In(r.loc).Format(DateLayout)
}

// today returns midnight of the current day in the office timezone.
func (r *Resolver) today() time.Time {
	n := r.now().In(r.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, r.loc)
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
