package availability

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryOverrides is an in-memory OverrideSource used in tests and as a
// fallback when the service runs without a database.
type MemoryOverrides struct {
	mu        sync.RWMutex
	overrides []Override
}

// NewMemoryOverrides creates an empty in-memory override source.
func NewMemoryOverrides() *MemoryOverrides {
	return &MemoryOverrides{}
}

// Add registers an override. Insertion order is storage order.
func (m *MemoryOverrides) Add(_ context.Context, ov *Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ov.ID == "" {
		ov.ID = uuid.NewString()
	}
	m.overrides = append(m.overrides, *ov)
	return nil
}

// ActiveForDate returns the first active override matching the pair, in
// insertion order, or nil.
func (m *MemoryOverrides) ActiveForDate(_ context.Context, specialtyID int, date string) (*Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.overrides {
		ov := m.overrides[i]
		if ov.SpecialtyID == specialtyID && ov.Date == date && ov.IsActive {
			return &ov, nil
		}
	}
	return nil, nil
}

// ListBySpecialty returns every override for a specialty in insertion order.
func (m *MemoryOverrides) ListBySpecialty(_ context.Context, specialtyID int) ([]Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Override
	for _, ov := range m.overrides {
		if ov.SpecialtyID == specialtyID {
			out = append(out, ov)
		}
	}
	return out, nil
}

// ListAll returns every override in insertion order.
func (m *MemoryOverrides) ListAll(_ context.Context) ([]Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Override, len(m.overrides))
	copy(out, m.overrides)
	return out, nil
}

// Deactivate flips an override off. Returns false when the id is unknown.
func (m *MemoryOverrides) Deactivate(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.overrides {
		if m.overrides[i].ID == id {
			m.overrides[i].IsActive = false
			return true, nil
		}
	}
	return false, nil
}

// DeleteAll removes every override; used by the admin data wipe.
func (m *MemoryOverrides) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides = nil
	return nil
}

// Delete removes an override. Returns false when the id is unknown.
func (m *MemoryOverrides) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.overrides {
		if m.overrides[i].ID == id {
			m.overrides = append(m.overrides[:i], m.overrides[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
