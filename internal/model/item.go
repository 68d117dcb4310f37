// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Error taxonomy shared by the store, the exporter and the handlers.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("item not found")
	ErrEmptyExport = errors.New("no items to export")
)

// Validation reasons for Item fields.
var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrNameTooLong     = errors.New("name cannot exceed 255 characters")
	ErrInvalidName     = errors.New("name cannot contain commas or line breaks")
	ErrUnknownCategory = errors.New("unknown category")
	ErrPriceOutOfRange = errors.New("unit price must be between 0 and 1000000")
	ErrStockOutOfRange = errors.New("stock must be between 0 and 1000000")
)

// Validation constants.
const (
	MaxNameLength = 255
	MaxUnitPrice  = 1_000_000.0
	MaxStock      = 1_000_000
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Reason)
}

// Unwrap exposes both the generic ErrValidation and the specific reason.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Reason}
}

// Item is a single inventory line.
type Item struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	UnitPrice float64  `json:"unit_price"`
	Stock     int      `json:"stock"`
}

// Subtotal returns UnitPrice * Stock.
func (i Item) Subtotal() float64 {
	return i.UnitPrice * float64(i.Stock)
}

// ItemInput carries the user-editable fields of an Item.
type ItemInput struct {
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	UnitPrice float64  `json:"unit_price"`
	Stock     int      `json:"stock"`
}

// Normalize trims the name, applies the default category and rounds the
// unit price to cents.
func (in ItemInput) Normalize() ItemInput {
	in.Name = strings.TrimSpace(in.Name)
	in.UnitPrice = math.Round(in.UnitPrice*100) / 100
	in.Category = Category(strings.TrimSpace(string(in.Category)))
	if in.Category == "" {
		in.Category = DefaultCategory()
	}
	return in
}

// Validate checks the input after normalization. Price and stock are
// checked independently; the first failing field is reported.
func (in ItemInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: ErrEmptyName}
	}

	if len(in.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Reason: ErrNameTooLong}
	}

	if strings.ContainsAny(in.Name, ",\r\n") {
		return &ValidationError{Field: "name", Reason: ErrInvalidName}
	}

	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Reason: ErrUnknownCategory}
	}

	if math.IsNaN(in.UnitPrice) || in.UnitPrice < 0 || in.UnitPrice > MaxUnitPrice {
		return &ValidationError{Field: "unit_price", Reason: ErrPriceOutOfRange}
	}

	if in.Stock < 0 || in.Stock > MaxStock {
		return &ValidationError{Field: "stock", Reason: ErrStockOutOfRange}
	}

	return nil
}

// ItemView is the JSON representation of an Item including derived values.
type ItemView struct {
	Item
	Subtotal float64 `json:"subtotal"`
}

// NewItemView wraps an Item with its subtotal.
func NewItemView(item Item) ItemView {
	return ItemView{Item: item, Subtotal: item.Subtotal()}
}

// InventoryPage is the payload returned for a filtered listing.
type InventoryPage struct {
	Filter string     `json:"filter,omitempty"`
	Items  []ItemView `json:"items"`
	Count  int        `json:"count"`
	Total  string     `json:"total"`
}

// NewInventoryPage builds a page from the items matched by filter. The
// total is summed over exactly these items.
func NewInventoryPage(filter string, items []Item) InventoryPage {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, NewItemView(item))
	}

	return InventoryPage{
		Filter: filter,
		Items:  views,
		Count:  len(views),
		Total:  FormatAmount(TotalOf(items)),
	}
}

// TotalOf sums the subtotals of items in order.
func TotalOf(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// FormatAmount renders a money amount with exactly two decimals.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// APIResponse wraps successful API payloads. Failures are answered with
// ErrorResponse instead.
type APIResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
