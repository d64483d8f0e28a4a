package requirement

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store manages requirement persistence and retrieval
type Store interface {
	// Add a new requirement
	Add(req *Requirement) error

	// Get a requirement by ID
	Get(id string) (*Requirement, error)

	// List all active requirements, ordered by ID
	ListActive() ([]*Requirement, error)

	// Update an existing requirement
	Update(req *Requirement) error

	// Delete a requirement
	Delete(id string) error
}

// InMemoryStore implements Store using an in-memory map.
// Thread-safe with RWMutex
type InMemoryStore struct {
	requirements map[string]*Requirement
	mu           sync.RWMutex
}

// NewInMemoryStore creates a new in-memory requirement store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requirements: make(map[string]*Requirement),
	}
}

// Add adds a new requirement to the store
func (s *InMemoryStore) Add(req *Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requirements[req.ID]; exists {
		return fmt.Errorf("requirement with ID %s already exists", req.ID)
	}

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.requirements[req.ID] = req
	return nil
}

// Get retrieves a requirement by ID
func (s *InMemoryStore) Get(id string) (*Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, exists := s.requirements[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return req, nil
}

// ListActive returns all active requirements ordered by ID, so batch output
// ordering is stable regardless of map iteration order
func (s *InMemoryStore) ListActive() ([]*Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*Requirement
	for _, req := range s.requirements {
		if req.Active {
			active = append(active, req)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

// Update updates an existing requirement
func (s *InMemoryStore) Update(req *Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.requirements[req.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, req.ID)
	}

	// Preserve original CreatedAt timestamp
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now()
	s.requirements[req.ID] = req
	return nil
}

// Delete removes a requirement from the store
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requirements[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(s.requirements, id)
	return nil
}
