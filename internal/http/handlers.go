package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"shoplist/internal/core"
	"shoplist/internal/storage"
)

// emptyModal is the collapsed modal slot. Appended out-of-band after a
// successful add so the form closes along with the list refresh.
const emptyModal = `<div id="modal" class="modal hidden"></div>`
const emptyModalOOB = `<div id="modal" class="modal hidden" hx-swap-oob="true"></div>`

type (
	itemView struct {
		ID       int64
		Name     string
		Quantity int64
		Cost     string
		Store    string
		Notes    string
		Found    bool
	}

	categoryView struct {
		Name  string
		Items []itemView
	}

	listingData struct {
		Budget         string
		Total          string
		Remaining      string
		RemainingClass string
		Categories     []categoryView
	}

	editFieldData struct {
		ItemID    int64
		Field     string
		Value     string
		InputType string
		Step      string
		Min       string
	}
)

// buildListingData fetches the current state and shapes it for the
// budget+list templates. Remaining budget is recomputed on every call.
func (s *Server) buildListingData(ctx context.Context) (listingData, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return listingData{}, err
	}
	total, err := s.items.TotalCents(ctx)
	if err != nil {
		return listingData{}, err
	}
	budget, err := s.budgets.CurrentBudgetCents(ctx)
	if err != nil {
		return listingData{}, err
	}

	remaining := budget - total
	data := listingData{
		Budget:         formatDollars(budget),
		Total:          formatDollars(total),
		Remaining:      formatDollars(remaining),
		RemainingClass: "positive",
	}
	if remaining < 0 {
		data.RemainingClass = "negative"
	}

	groups := core.GroupByCategory(items)
	for _, name := range core.SortedCategories(groups) {
		cv := categoryView{Name: name}
		for _, it := range groups[name] {
			notes := it.Notes
			if notes == "" {
				notes = "-"
			}
			cv.Items = append(cv.Items, itemView{
				ID:       it.ID,
				Name:     it.Name,
				Quantity: it.Quantity,
				Cost:     formatDollars(it.Cost.Cents),
				Store:    it.Store,
				Notes:    notes,
				Found:    it.Found,
			})
		}
		data.Categories = append(data.Categories, cv)
	}
	return data, nil
}

// renderFragment executes one template into a buffer and writes it along
// with any trailing out-of-band fragments.
func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any, oob string) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to render page")
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteString(oob)
	_, _ = w.Write(buf.Bytes())
}

// renderListing re-fetches state and renders the budget+list container.
func (s *Server) renderListing(w http.ResponseWriter, r *http.Request, oob string) {
	data, err := s.buildListingData(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load shopping list", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to load shopping list")
		return
	}
	s.renderFragment(w, r, "listing.html", data, oob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "path", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data, err := s.buildListingData(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load shopping list", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to load shopping list")
		return
	}
	s.renderFragment(w, r, "index.html", data, "")
}

func (s *Server) handleNewItemForm(w http.ResponseWriter, r *http.Request) {
	s.renderFragment(w, r, "new_item_form.html", nil, "")
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(emptyModal))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", "error", err, "path", r.URL.Path)
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	quantity, err := core.ParseQuantity(r.Form.Get("quantity"))
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Quantity cannot be negative")
		return
	}
	cents, err := core.ParseCents(r.Form.Get("cost"))
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Cost cannot be negative")
		return
	}

	item := core.Item{
		Category: sanitizeInput(r.Form.Get("category")),
		Name:     sanitizeInput(r.Form.Get("item")),
		Quantity: quantity,
		Cost:     core.Money{Cents: cents},
		Notes:    sanitizeInput(r.Form.Get("notes")),
		Store:    sanitizeInput(r.Form.Get("store")),
	}
	if err := item.Validate(); err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	if err := s.items.AddItem(r.Context(), item); err != nil {
		if core.IsValidationError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, validationMessage(err))
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to add item", "error", err, "item", item.Name)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to add item")
		return
	}

	s.renderListing(w, r, emptyModalOOB)
}

func (s *Server) handleEditBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.budgets.CurrentBudgetCents(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read budget", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to load budget")
		return
	}
	data := struct{ Value string }{Value: strconv.FormatInt(budget/100, 10) + "." + twoDigits(budget%100)}
	s.renderFragment(w, r, "edit_budget.html", data, "")
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	cents, err := core.ParseCents(r.Form.Get("value"))
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Budget cannot be negative")
		return
	}
	if err := s.budgets.SetBudget(r.Context(), cents); err != nil {
		s.budgetError(w, r, err)
		return
	}

	data, err := s.buildListingData(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load shopping list", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to load shopping list")
		return
	}
	s.renderFragment(w, r, "content.html", data, "")
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	cents, err := core.ParseCents(r.Form.Get("budget"))
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Budget cannot be negative")
		return
	}
	if err := s.budgets.SetBudget(r.Context(), cents); err != nil {
		s.budgetError(w, r, err)
		return
	}
	s.renderListing(w, r, "")
}

func (s *Server) budgetError(w http.ResponseWriter, r *http.Request, err error) {
	if core.IsValidationError(err) {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Budget cannot be negative")
		return
	}
	s.logger.ErrorContext(r.Context(), "Failed to update budget", "error", err)
	writeErrorFragment(w, http.StatusInternalServerError, "Failed to update budget")
}

func (s *Server) handleToggleFound(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := s.items.ToggleFound(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to toggle found", "error", err, "id", id)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to update item status")
		return
	}
	s.renderListing(w, r, "")
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := s.items.RemoveItem(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to remove item", "error", err, "id", id)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to remove item")
		return
	}
	s.renderListing(w, r, "")
}

func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	field := chi.URLParam(r, "field")
	if !core.EditableFields[field] {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Unknown field")
		return
	}

	value, err := s.items.GetField(r.Context(), id, field)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErrorFragment(w, http.StatusNotFound, "Item not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to load edit form", "error", err, "id", id, "field", field)
		writeErrorFragment(w, http.StatusInternalServerError, "Error loading edit form")
		return
	}

	data := editFieldData{ItemID: id, Field: field, Value: value, InputType: "text"}
	switch field {
	case core.FieldQuantity:
		data.InputType, data.Step, data.Min = "number", "1", "0"
	case core.FieldCost:
		data.InputType, data.Step, data.Min = "number", "0.01", "0"
	}
	s.renderFragment(w, r, "edit_field.html", data, "")
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	field := chi.URLParam(r, "field")
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := s.items.UpdateField(r.Context(), id, field, r.Form.Get("value")); err != nil {
		if core.IsValidationError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, fieldMessage(field, err))
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to update field", "error", err, "id", id, "field", field)
		writeErrorFragment(w, http.StatusInternalServerError, "Failed to update value")
		return
	}
	s.renderListing(w, r, "")
}

// itemID parses the {itemID} path parameter, writing an error fragment on
// malformed input.
func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Invalid item id")
		return 0, false
	}
	return id, true
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category cannot be empty"
	case errors.Is(err, core.ErrEmptyItem):
		return "Item cannot be empty"
	case errors.Is(err, core.ErrEmptyStore):
		return "Store cannot be empty"
	case errors.Is(err, core.ErrInvalidQuantity):
		return "Quantity cannot be negative"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Cost cannot be negative"
	case errors.Is(err, core.ErrUnknownField):
		return "Unknown field"
	default:
		return "Invalid input"
	}
}

func fieldMessage(field string, err error) string {
	if errors.Is(err, core.ErrEmptyValue) {
		return titleCase(field) + " cannot be empty"
	}
	switch {
	case errors.Is(err, core.ErrInvalidQuantity):
		return "Invalid quantity"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid cost"
	case errors.Is(err, core.ErrUnknownField):
		return "Unknown field"
	default:
		return "Invalid " + field
	}
}

func titleCase(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
