package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/wellspring/internal/model"
)

// MemoryStore is an in-process Store for dry runs and tests
type MemoryStore struct {
	mu    sync.RWMutex
	items []model.AcceptedItem
}

// NewMemoryStore creates a store seeded with items
func NewMemoryStore(seed ...model.AcceptedItem) *MemoryStore {
	s := &MemoryStore{}
	s.items = append(s.items, seed...)
	return s
}

// FetchBaseline returns every stored item, archived ones included
func (s *MemoryStore) FetchBaseline(ctx context.Context) ([]model.BaselineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.BaselineItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, model.BaselineItem{
			Content:    it.Content,
			Category:   it.Category,
			Author:     it.Author,
			Citation:   it.Citation,
			IsArchived: it.IsArchived,
		})
	}
	return out, nil
}

// InsertAccepted appends the batch; duplicate ids reject the whole batch
func (s *MemoryStore) InsertAccepted(ctx context.Context, items []model.AcceptedItem) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]bool, len(s.items)+len(items))
	for _, it := range s.items {
		ids[it.ID] = true
	}
	for _, it := range items {
		if ids[it.ID] {
			return fmt.Errorf("%w: duplicate id %s", model.ErrPersistence, it.ID)
		}
		ids[it.ID] = true
	}

	s.items = append(s.items, items...)
	return nil
}

// List returns stored items, newest first
func (s *MemoryStore) List(_ context.Context, f Filter) ([]model.AcceptedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AcceptedItem
	for _, it := range s.items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if it.IsArchived && !f.IncludeArchived {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Archive marks an item archived
func (s *MemoryStore) Archive(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsArchived = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored items
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
