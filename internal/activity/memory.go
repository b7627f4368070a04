package activity

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository keeps records in memory for local development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string][]Record)}
}

// Create implements Repository.
func (r *InMemoryRepository) Create(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.records[record.UserID], record)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
	r.records[record.UserID] = list
	return nil
}

// ListByUser implements Repository.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.records[userID]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	out := make([]Record, len(list))
	copy(out, list)
	return out, nil
}
