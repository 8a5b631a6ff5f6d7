package appointments

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Repository defines the storage contract for appointments. The id is
// caller-supplied (the TURNO scheme), never generated by the store.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status) (bool, error)
	FindByPatient(ctx context.Context, phone string) ([]Appointment, error)
	Search(ctx context.Context, query string) ([]Appointment, error)
	ActiveForSlot(ctx context.Context, specialtyID int, date, slot string) (bool, error)
	MaxAssignedNumber(ctx context.Context) (int, error)
	StatusCounts(ctx context.Context) (Stats, error)
	DueReminders(ctx context.Context, date string) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	DeleteAll(ctx context.Context) error
}

var turnoSuffix = regexp.MustCompile(`^TURNO-(\d+)$`)

// MemoryRepository is an in-memory Repository used in tests and as a local
// fallback when the service runs without a database.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Appointment
	order []string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*Appointment)}
}

// Create stores the appointment. Duplicate ids overwrite, mirroring a table
// with a caller-supplied primary key would instead reject; tests that
// demonstrate the id race rely on observing the overwrite.
func (r *MemoryRepository) Create(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[appt.ID]; !exists {
		r.order = append(r.order, appt.ID)
	}
	cp := *appt
	r.byID[appt.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Appointment, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	appt.Status = status
	return true, nil
}

func (r *MemoryRepository) FindByPatient(_ context.Context, phone string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, id := range r.order {
		if appt := r.byID[id]; appt.PatientPhone == phone {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Search(_ context.Context, query string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	var out []Appointment
	for _, id := range r.order {
		appt := r.byID[id]
		if strings.Contains(strings.ToLower(appt.PatientName), q) ||
			strings.Contains(appt.PatientPhone, query) ||
			strings.Contains(strings.ToLower(appt.PatientEmail), q) {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ActiveForSlot(_ context.Context, specialtyID int, date, slot string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, appt := range r.byID {
		if appt.SpecialtyID == specialtyID && appt.Date == date && appt.Time == slot && appt.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) MaxAssignedNumber(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for id := range r.byID {
		m := turnoSuffix.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (r *MemoryRepository) StatusCounts(_ context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s Stats
	for _, appt := range r.byID {
		s.Total++
		switch appt.Status {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCancelled:
			s.Cancelled++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s, nil
}

func (r *MemoryRepository) DueReminders(_ context.Context, date string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, id := range r.order {
		appt := r.byID[id]
		if appt.Date == date && appt.Status == StatusConfirmed && !appt.ReminderSent {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (r *MemoryRepository) MarkReminderSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	appt.ReminderSent = true
	appt.ReminderDate = &at
	return nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*Appointment)
	r.order = nil
	return nil
}
