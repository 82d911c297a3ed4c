package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps bookings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]Booking
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]Booking)}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, b Booking) (string, error) {
	return createWithRetry(b, func(b Booking) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, exists := m.bookings[b.Reference]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicate, b.Reference)
		}
		m.bookings[b.Reference] = b
		return nil
	})
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, reference string) (Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[reference]
	if !ok {
		return Booking{}, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return b, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[reference]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	delete(m.bookings, reference)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Booking) int { return strings.Compare(a.Reference, b.Reference) })
	return out, nil
}

// Reset removes every booking.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.bookings)
}

var _ Store = (*MemoryStore)(nil)
