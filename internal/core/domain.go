package core

import (
	"errors"
	"strings"
)

// Editable item field names as they appear in edit/update routes and forms.
const (
	FieldCategory = "category"
	FieldItem     = "item"
	FieldQuantity = "quantity"
	FieldCost     = "cost"
	FieldNotes    = "notes"
	FieldStore    = "store"
	FieldFound    = "found"
)

type (
	Money struct {
		Cents int64
	}

	Item struct {
		ID       int64
		Category string
		Name     string
		Quantity int64
		Cost     Money // unit cost
		Notes    string
		Found    bool
		Store    string
	}

	BudgetRecord struct {
		ID     int64
		Amount Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyItem       = errors.New("empty item")
	ErrEmptyStore      = errors.New("empty store")
	ErrEmptyValue      = errors.New("empty value")
	ErrUnknownField    = errors.New("unknown field")
)

// IsValidationError reports whether err is a user-input problem, as
// opposed to a storage failure. Handlers use this to pick between a
// field-level error fragment and the generic operation-failed one.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidQuantity,
		ErrEmptyCategory, ErrEmptyItem, ErrEmptyStore, ErrEmptyValue,
		ErrUnknownField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// EditableFields is the closed set of item fields the edit endpoints accept.
// Update paths must resolve field names through this set and nothing else.
var EditableFields = map[string]bool{
	FieldCategory: true,
	FieldItem:     true,
	FieldQuantity: true,
	FieldCost:     true,
	FieldNotes:    true,
	FieldStore:    true,
	FieldFound:    true,
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyItem
	}
	if strings.TrimSpace(i.Store) == "" {
		return ErrEmptyStore
	}
	if i.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return i.Cost.Validate()
}

func (b BudgetRecord) Validate() error {
	return b.Amount.Validate()
}
