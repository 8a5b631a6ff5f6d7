package availability

import (
	"context"
	"testing"
	"time"
)

// Fixed clock: Wednesday 2026-03-11 10:00 UTC. The surrounding week gives a
// Monday (03-09), a Saturday (03-14) and a Sunday (03-15).
func fixedClock() time.Time {
	return time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
}

func newTestResolver(t *testing.T, overrides OverrideSource) *Resolver {
	t.Helper()
	if wd := fixedClock().Weekday(); wd != time.Wednesday {
		t.Fatalf("test anchor must be a Wednesday, got %s", wd)
	}
	return NewResolver(overrides, time.UTC, WithClock(fixedClock))
}

func TestPastDateUnavailable(t *testing.T) {
	r := newTestResolver(t, nil)
	ok, err := r.IsDateAvailable(context.Background(), 1, "2026-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("yesterday must be unavailable")
	}
}

func TestWeekendUnavailableEvenWithOverride(t *testing.T) {
	mem := NewMemoryOverrides()
	_ = mem.Add(context.Background(), &Override{
		SpecialtyID: 1, Date: "2026-03-14", StartTime: "10:00", EndTime: "12:00", IsActive: true,
	})
	r := newTestResolver(t, mem)

	for _, date := range []string{"2026-03-14", "2026-03-15"} {
		ok, err := r.IsDateAvailable(context.Background(), 1, date)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Errorf("%s is a weekend and must be unavailable", date)
		}
		hours, err := r.HoursForDate(context.Background(), 1, date)
		if err != nil {
			t.Fatal(err)
		}
		if len(hours) != 0 {
			t.Errorf("%s: hours = %v, want none", date, hours)
		}
	}
}

func TestOverrideExpandsWindowEndExclusive(t *testing.T) {
	mem := NewMemoryOverrides()
	_ = mem.Add(context.Background(), &Override{
		SpecialtyID: 1, Date: "2026-03-12", StartTime: "10:00", EndTime: "11:00", IsActive: true,
	})
	r := newTestResolver(t, mem)

	ok, err := r.IsDateAvailable(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("override date must be available")
	}

	hours, err := r.HoursForDate(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"10:00", "10:30"}
	if len(hours) != len(want) || hours[0] != want[0] || hours[1] != want[1] {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestReversedOrEmptyOverrideWindowYieldsNoSlots(t *testing.T) {
	for name, window := range map[string][2]string{
		"reversed": {"11:00", "10:00"},
		"equal":    {"10:00", "10:00"},
	} {
		t.Run(name, func(t *testing.T) {
			mem := NewMemoryOverrides()
			_ = mem.Add(context.Background(), &Override{
				SpecialtyID: 1, Date: "2026-03-12", StartTime: window[0], EndTime: window[1], IsActive: true,
			})
			r := newTestResolver(t, mem)

			// The date counts as available; the stepping loop just never runs.
			ok, err := r.IsDateAvailable(context.Background(), 1, "2026-03-12")
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Error("date with override must be available")
			}
			hours, err := r.HoursForDate(context.Background(), 1, "2026-03-12")
			if err != nil {
				t.Fatal(err)
			}
			if len(hours) != 0 {
				t.Errorf("hours = %v, want empty", hours)
			}
		})
	}
}

func TestInactiveOverrideIgnored(t *testing.T) {
	mem := NewMemoryOverrides()
	_ = mem.Add(context.Background(), &Override{
		SpecialtyID: 1, Date: "2026-03-12", StartTime: "18:00", EndTime: "19:00", IsActive: false,
	})
	r := newTestResolver(t, mem)

	hours, err := r.HoursForDate(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	// Falls back to the specialty's weekly grid.
	if len(hours) != 10 || hours[0] != "09:00" {
		t.Errorf("hours = %v, want default grid", hours)
	}
}

func TestDuplicateOverridesFirstInStorageOrderWins(t *testing.T) {
	mem := NewMemoryOverrides()
	_ = mem.Add(context.Background(), &Override{
		SpecialtyID: 1, Date: "2026-03-12", StartTime: "10:00", EndTime: "11:00", IsActive: true,
	})
	_ = mem.Add(context.Background(), &Override{
		SpecialtyID: 1, Date: "2026-03-12", StartTime: "15:00", EndTime: "17:00", IsActive: true,
	})
	r := newTestResolver(t, mem)

	hours, err := r.HoursForDate(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 2 || hours[0] != "10:00" {
		t.Errorf("hours = %v, want window of the first override", hours)
	}
}

func TestWeekdayDefaultHours(t *testing.T) {
	r := newTestResolver(t, nil)

	ok, err := r.IsDateAvailable(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Thursday must be available for specialty 1")
	}
	hours, err := r.HoursForDate(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 10 || hours[0] != "09:00" || hours[9] != "15:30" {
		t.Errorf("hours = %v", hours)
	}
}

func TestTodayFiltersSlotsInsideLeadTime(t *testing.T) {
	r := newTestResolver(t, nil)

	// Clock reads 10:00; with the 30 minute lead only hours strictly after
	// 10:30 remain.
	hours, err := r.HoursForDate(context.Background(), 1, "2026-03-11")
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) == 0 {
		t.Fatal("expected remaining slots today")
	}
	for _, h := range hours {
		if h <= "10:30" {
			t.Errorf("slot %s is inside the lead time", h)
		}
	}
	if hours[0] != "11:00" {
		t.Errorf("first slot = %s, want 11:00", hours[0])
	}
}

func TestTodayFilterAppliesToOverrideWindow(t *testing.T) {
	mem := NewMemoryOverrides()
	_ = mem.Add(context.Background(), &Override{
		SpecialtyID: 1, Date: "2026-03-11", StartTime: "09:00", EndTime: "12:00", IsActive: true,
	})
	r := newTestResolver(t, mem)

	hours, err := r.HoursForDate(context.Background(), 1, "2026-03-11")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"11:00", "11:30"}
	if len(hours) != 2 || hours[0] != want[0] || hours[1] != want[1] {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestUnknownSpecialtyUnavailable(t *testing.T) {
	r := newTestResolver(t, nil)
	ok, err := r.IsDateAvailable(context.Background(), 99, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown specialty must be unavailable")
	}
	hours, err := r.HoursForDate(context.Background(), 99, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 0 {
		t.Errorf("hours = %v, want empty", hours)
	}
}

func TestMalformedDateUnavailable(t *testing.T) {
	r := newTestResolver(t, nil)
	ok, err := r.IsDateAvailable(context.Background(), 1, "12/03/2026")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("malformed date must be unavailable")
	}
}
