package store

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
)

// MemoryStore implements Store with an ordered in-memory slice.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []model.Item
	nextID int64
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make([]model.Item, 0),
		nextID: 1,
	}
}

// Add validates the input, assigns the next id and appends the item.
func (s *MemoryStore) Add(input model.ItemInput) (model.Item, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := model.Item{
		ID:        s.nextID,
		Name:      input.Name,
		Category:  input.Category,
		UnitPrice: input.UnitPrice,
		Stock:     input.Stock,
	}
	s.nextID++
	s.items = append(s.items, item)

	return item, nil
}

// Update replaces the fields of an existing item in place.
func (s *MemoryStore) Update(id int64, input model.ItemInput) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Item{}, fmt.Errorf("update item %d: %w", id, model.ErrNotFound)
	}

	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return model.Item{}, fmt.Errorf("update item %d: %w", id, err)
	}

	s.items[idx] = model.Item{
		ID:        id,
		Name:      input.Name,
		Category:  input.Category,
		UnitPrice: input.UnitPrice,
		Stock:     input.Stock,
	}

	return s.items[idx], nil
}

// Remove deletes an item by its id. Survivors keep their order.
func (s *MemoryStore) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("remove item %d: %w", id, model.ErrNotFound)
	}

	s.items = slices.Delete(s.items, idx, idx+1)

	return nil
}

// Get retrieves an item by its id.
func (s *MemoryStore) Get(id int64) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Item{}, fmt.Errorf("get item %d: %w", id, model.ErrNotFound)
	}

	return s.items[idx], nil
}

// List returns the items matching filter in insertion order.
func (s *MemoryStore) List(filter string) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filtered(filter)
}

// Total returns the sum of subtotals over the items matching filter.
func (s *MemoryStore) Total(filter string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.TotalOf(s.filtered(filter))
}

// Len returns the number of live items.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// filtered must be called with the lock held. The result never aliases s.items.
func (s *MemoryStore) filtered(filter string) []model.Item {
	needle := strings.ToLower(strings.TrimSpace(filter))

	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		if needle == "" || matches(item, needle) {
			out = append(out, item)
		}
	}

	return out
}

// indexOf returns the slice position of id, or -1. Ids increase along the
// slice because items are only appended and removals keep the order.
func (s *MemoryStore) indexOf(id int64) int {
	idx, found := slices.BinarySearchFunc(s.items, id, func(item model.Item, target int64) int {
		return cmp.Compare(item.ID, target)
	})
	if !found {
		return -1
	}
	return idx
}

func matches(item model.Item, needle string) bool {
	return strings.Contains(strings.ToLower(item.Name), needle) ||
		strings.Contains(strings.ToLower(string(item.Category)), needle)
}
