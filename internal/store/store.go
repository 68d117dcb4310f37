// Package store provides the inventory storage interface and its in-memory implementation.
package store

import (
	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
)

// Store defines the inventory operations. Every call runs to completion
// and either succeeds or fails immediately.
type Store interface {
	// Add validates the input, assigns the next id and appends the item.
	Add(input model.ItemInput) (model.Item, error)

	// Update replaces the fields of the item with the given id, keeping its
	// id and position.
	Update(id int64, input model.ItemInput) (model.Item, error)

	// Remove deletes the item with the given id permanently.
	Remove(id int64) error

	// Get retrieves an item by its id.
	Get(id int64) (model.Item, error)

	// List returns the items whose name or category contains filter,
	// case-insensitively, in insertion order. An empty filter matches all.
	List(filter string) []model.Item

	// Total returns the sum of subtotals over List(filter).
	Total(filter string) float64

	// Len returns the number of live items.
	Len() int
}
