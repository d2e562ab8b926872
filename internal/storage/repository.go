package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shoplist/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup targets an item id that does not
// exist. Mutations on missing ids (toggle, remove) do not return it; those
// are silent no-ops.
var ErrNotFound = errors.New("item not found")

// itemColumns maps editable field names to their columns. Update statements
// resolve column names through this map only, never from caller input.
var itemColumns = map[string]string{
	core.FieldCategory: "category",
	core.FieldItem:     "item",
	core.FieldQuantity: "quantity",
	core.FieldCost:     "cost_cents",
	core.FieldNotes:    "notes",
	core.FieldStore:    "store",
	core.FieldFound:    "found",
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListItems returns every item, unfound first, newest first within each
// group. Grouping by category is the caller's concern (core.GroupByCategory).
func (r *SQLiteRepository) ListItems(ctx context.Context) ([]core.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, item, quantity, cost_cents, notes, found, store
		FROM shopping_list
		ORDER BY found ASC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var it core.Item
		if err := rows.Scan(&it.ID, &it.Category, &it.Name, &it.Quantity, &it.Cost.Cents, &it.Notes, &it.Found, &it.Store); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// AddItem validates and inserts a new item.
func (r *SQLiteRepository) AddItem(ctx context.Context, it core.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_list (category, item, quantity, cost_cents, notes, store)
		VALUES (?, ?, ?, ?, ?, ?)`,
		it.Category, it.Name, it.Quantity, it.Cost.Cents, it.Notes, it.Store)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	slog.InfoContext(ctx, "Item added",
		"category", it.Category,
		"item", it.Name,
		"quantity", it.Quantity,
		"cost_cents", it.Cost.Cents,
		"store", it.Store)
	return nil
}

// UpdateField sets a single editable field from its raw form value.
// Text fields must be non-empty after trimming; quantity and cost go
// through the core parsers (cost tolerates a leading "$").
func (r *SQLiteRepository) UpdateField(ctx context.Context, id int64, field, raw string) error {
	column, ok := itemColumns[field]
	if !ok || !core.EditableFields[field] {
		return core.ErrUnknownField
	}

	var value any
	switch field {
	case core.FieldQuantity:
		q, err := core.ParseQuantity(raw)
		if err != nil {
			return err
		}
		value = q
	case core.FieldCost:
		cents, err := core.ParseCents(raw)
		if err != nil {
			return err
		}
		value = cents
	case core.FieldFound:
		found, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return core.ErrEmptyValue
		}
		value = found
	default:
		v := strings.TrimSpace(raw)
		if v == "" {
			return core.ErrEmptyValue
		}
		value = v
	}

	query := fmt.Sprintf("UPDATE shopping_list SET %s = ? WHERE id = ?", column)
	if _, err := r.db.ExecContext(ctx, query, value, id); err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}

	slog.InfoContext(ctx, "Item field updated", "id", id, "field", field)
	return nil
}

// GetField returns the current value of one editable field as the string
// the inline edit form should be pre-populated with.
func (r *SQLiteRepository) GetField(ctx context.Context, id int64, field string) (string, error) {
	column, ok := itemColumns[field]
	if !ok || !core.EditableFields[field] {
		return "", core.ErrUnknownField
	}

	query := fmt.Sprintf("SELECT %s FROM shopping_list WHERE id = ?", column)
	row := r.db.QueryRowContext(ctx, query, id)

	switch field {
	case core.FieldQuantity:
		var q int64
		if err := row.Scan(&q); err != nil {
			return "", scanErr(field, err)
		}
		return strconv.FormatInt(q, 10), nil
	case core.FieldCost:
		var cents int64
		if err := row.Scan(&cents); err != nil {
			return "", scanErr(field, err)
		}
		return fmt.Sprintf("%d.%02d", cents/100, cents%100), nil
	case core.FieldFound:
		var found bool
		if err := row.Scan(&found); err != nil {
			return "", scanErr(field, err)
		}
		return strconv.FormatBool(found), nil
	default:
		var v string
		if err := row.Scan(&v); err != nil {
			return "", scanErr(field, err)
		}
		return v, nil
	}
}

func scanErr(field string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("get %s: %w", field, err)
}

// ToggleFound flips the found flag. A missing id is a silent no-op.
func (r *SQLiteRepository) ToggleFound(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE shopping_list SET found = NOT found WHERE id = ?", id); err != nil {
		return fmt.Errorf("toggle found: %w", err)
	}
	return nil
}

// RemoveItem deletes the row. A missing id is a silent no-op.
func (r *SQLiteRepository) RemoveItem(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM shopping_list WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	slog.InfoContext(ctx, "Item removed", "id", id)
	return nil
}

// TotalCents returns Σ(cost × quantity) over all items, 0 when empty.
func (r *SQLiteRepository) TotalCents(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT SUM(cost_cents * quantity) FROM shopping_list").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total cost: %w", err)
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Int64, nil
}

// CurrentBudgetCents returns the amount of the most recently inserted
// budget record, or 0 when the log is empty.
func (r *SQLiteRepository) CurrentBudgetCents(ctx context.Context) (int64, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT amount_cents FROM budget ORDER BY id DESC LIMIT 1").Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current budget: %w", err)
	}
	return cents, nil
}

// SetBudget appends a new budget record. Prior records are never touched;
// the latest id defines the current budget.
func (r *SQLiteRepository) SetBudget(ctx context.Context, cents int64) error {
	if err := (core.Money{Cents: cents}).Validate(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO budget (amount_cents) VALUES (?)", cents); err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget set", "amount_cents", cents)
	return nil
}
