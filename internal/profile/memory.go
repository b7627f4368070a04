package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

// InMemoryRepository keeps profiles in memory for local development and tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{profiles: make(map[string]Profile)}
}

// Get implements Repository.
func (r *InMemoryRepository) Get(_ context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, apperr.ErrNotFound)
	}
	return &p, nil
}

// Upsert implements Repository. The write lock is held across load, apply and store.
func (r *InMemoryRepository) Upsert(_ context.Context, userID string, at time.Time, apply func(*Profile)) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		p = New(userID, at)
	}
	apply(&p)
	p.UserID = userID
	p.UpdatedAt = at
	r.profiles[userID] = p
	return &p, nil
}
