package appointments

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPatientIDStable(t *testing.T) {
	a := PatientID("12345678", "2477504122")
	b := PatientID("12345678", "2477504122")
	if a != b {
		t.Fatalf("PatientID not stable: %q vs %q", a, b)
	}
	if a != "PAC-5678-4122" {
		t.Errorf("PatientID = %q", a)
	}
}

func TestPatientIDPadsShortInputs(t *testing.T) {
	if got := PatientID("78", "12"); got != "PAC-0078-0012" {
		t.Errorf("PatientID = %q", got)
	}
}

// Two patients whose dni and phone share the last four digits collide. That
// is a property of the scheme, documented rather than fixed.
func TestPatientIDCollidesOnSharedSuffixes(t *testing.T) {
	a := PatientID("11115678", "0000004122")
	b := PatientID("22225678", "9999904122")
	if a != b {
		t.Errorf("expected collision, got %q vs %q", a, b)
	}
}

type failingMaxSource struct{}

func (failingMaxSource) MaxAssignedNumber(context.Context) (int, error) {
	return 0, errors.New("store unreachable")
}

func TestTurnoIDsSequential(t *testing.T) {
	repo := NewMemoryRepository()
	gen := NewTurnoIDs(repo, nil)

	for i, want := range []string{"TURNO-001", "TURNO-002", "TURNO-003"} {
		id, fallback := gen.Next(context.Background())
		if fallback {
			t.Fatalf("step %d used fallback", i)
		}
		if id != want {
			t.Fatalf("step %d: id = %q, want %q", i, id, want)
		}
		_ = repo.Create(context.Background(), &Appointment{ID: id, Status: StatusPending})
	}
}

func TestTurnoIDsContinueAboveExistingMax(t *testing.T) {
	repo := NewMemoryRepository()
	_ = repo.Create(context.Background(), &Appointment{ID: "TURNO-002", Status: StatusPending})
	gen := NewTurnoIDs(repo, nil)
	id, _ := gen.Next(context.Background())
	if id != "TURNO-003" {
		t.Errorf("id = %q, want TURNO-003", id)
	}
}

func TestTurnoIDsFallbackOnStoreFailure(t *testing.T) {
	gen := NewTurnoIDs(failingMaxSource{}, nil)
	id, fallback := gen.Next(context.Background())
	if !fallback {
		t.Fatal("expected fallback flag")
	}
	if !strings.HasPrefix(id, "TURNO-") {
		t.Fatalf("id = %q", id)
	}
	suffix := strings.TrimPrefix(id, "TURNO-")
	if len(suffix) != 6 {
		t.Errorf("fallback suffix = %q, want 6 digits", suffix)
	}
}

// Read-max-then-insert has no atomic increment: two clients that both read
// the maximum before either writes mint the same id. This pins the accepted
// limitation.
func TestTurnoIDRaceMintsDuplicateIDs(t *testing.T) {
	repo := NewMemoryRepository()
	genA := NewTurnoIDs(repo, nil)
	genB := NewTurnoIDs(repo, nil)

	idA, _ := genA.Next(context.Background())
	idB, _ := genB.Next(context.Background())

	if idA != idB {
		t.Fatalf("expected the race to produce duplicate ids, got %q and %q", idA, idB)
	}
}
