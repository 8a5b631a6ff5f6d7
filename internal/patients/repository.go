package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the storage contract for the patient directory.
type Repository interface {
	RecordVisit(ctx context.Context, name, dni, phone, email string) error
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ListAll(ctx context.Context) ([]User, error)
	Search(ctx context.Context, query string) ([]User, error)
	Stats(ctx context.Context) (Stats, error)
	MostFrequent(ctx context.Context, limit int) ([]User, error)
	Deactivate(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) error
}

// MemoryRepository is an in-memory Repository used in tests and as a local
// fallback when the service runs without a database.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*User
	order []string
	now   func() time.Time
}

// NewMemoryRepository creates an empty directory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*User), now: time.Now}
}

// WithClock overrides the repository clock; test hook.
func (r *MemoryRepository) WithClock(now func() time.Time) *MemoryRepository {
	r.now = now
	return r
}

// RecordVisit upserts the patient keyed by dni or phone, bumping the
// appointment counter and refreshing name, email and last visit.
func (r *MemoryRepository) RecordVisit(_ context.Context, name, dni, phone, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	first, last := splitName(name)

	for _, id := range r.order {
		u := r.byID[id]
		if u.DNI == dni || u.Phone == phone {
			u.FirstName = first
			u.LastName = last
			u.Phone = phone
			if email != "" {
				u.Email = email
			}
			u.LastVisit = &now
			u.TotalAppointments++
			u.IsActive = true
			return nil
		}
	}

	u := &User{
		ID:                uuid.NewString(),
		FirstName:         first,
		LastName:          last,
		DNI:               dni,
		Phone:             phone,
		Email:             email,
		CreatedAt:         now,
		LastVisit:         &now,
		TotalAppointments: 1,
		IsActive:          true,
	}
	r.byID[u.ID] = u
	r.order = append(r.order, u.ID)
	return nil
}

func (r *MemoryRepository) GetByPhone(_ context.Context, phone string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if u := r.byID[id]; u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out, nil
}

func (r *MemoryRepository) Search(_ context.Context, query string) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	var out []User
	for _, id := range r.order {
		u := r.byID[id]
		if strings.Contains(strings.ToLower(u.FullName()), q) ||
			strings.Contains(u.Phone, query) ||
			strings.Contains(u.DNI, query) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Stats(_ context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s Stats
	monthStart := r.now().UTC().AddDate(0, -1, 0)
	for _, u := range r.byID {
		s.Total++
		if u.IsActive {
			s.Active++
		} else {
			s.Inactive++
		}
		if u.CreatedAt.After(monthStart) {
			s.NewThisMonth++
		}
	}
	return s, nil
}

func (r *MemoryRepository) MostFrequent(_ context.Context, limit int) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalAppointments > out[j].TotalAppointments
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Deactivate(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	u.IsActive = false
	return true, nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*User)
	r.order = nil
	return nil
}
