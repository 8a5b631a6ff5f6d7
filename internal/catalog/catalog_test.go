package catalog

import "testing"

func TestByID(t *testing.T) {
	s, ok := ByID(1)
	if !ok {
		t.Fatal("specialty 1 not found")
	}
	if s.Name != "CARDIOLOGÍA" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.AvailableDays) != 5 {
		t.Errorf("AvailableDays = %v", s.AvailableDays)
	}
	if s.AvailableHours[0] != "09:00" {
		t.Errorf("first hour = %q", s.AvailableHours[0])
	}
}

func TestByIDUnknown(t *testing.T) {
	if _, ok := ByID(99); ok {
		t.Error("expected miss for id 99")
	}
}

func TestAllIsACopy(t *testing.T) {
	all := All()
	if len(all) != 17 {
		t.Fatalf("len = %d, want 17", len(all))
	}
	all[0].Name = "mutated"
	if s, _ := ByID(all[0].ID); s.Name == "mutated" {
		t.Error("All() must not expose internal slice")
	}
}

func TestHoursAreZeroPaddedAndSorted(t *testing.T) {
	for _, s := range All() {
		prev := ""
		for _, h := range s.AvailableHours {
			if len(h) != 5 || h[2] != ':' {
				t.Fatalf("specialty %d hour %q not HH:MM", s.ID, h)
			}
			if h <= prev {
				t.Fatalf("specialty %d hours out of order: %q after %q", s.ID, h, prev)
			}
			prev = h
		}
	}
}
