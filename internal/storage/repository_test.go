package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"shoplist/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func addItem(t *testing.T, repo *SQLiteRepository, it core.Item) {
	t.Helper()
	if err := repo.AddItem(context.Background(), it); err != nil {
		t.Fatalf("add item: %v", err)
	}
}

func TestEmptyStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	items, err := repo.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(items))
	}

	total, err := repo.TotalCents(ctx)
	if err != nil || total != 0 {
		t.Fatalf("expected total 0, got %d (err=%v)", total, err)
	}

	budget, err := repo.CurrentBudgetCents(ctx)
	if err != nil || budget != 0 {
		t.Fatalf("expected budget 0, got %d (err=%v)", budget, err)
	}
}

func TestAddItemAndTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addItem(t, repo, core.Item{
		Category: "Paint", Name: "Primer", Quantity: 2,
		Cost: core.Money{Cents: 1500}, Store: "Lowe's",
	})

	total, err := repo.TotalCents(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 3000 {
		t.Fatalf("expected total 3000, got %d", total)
	}

	items, err := repo.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.ID == 0 || it.Found || it.Category != "Paint" || it.Name != "Primer" {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestAddItemRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []core.Item{
		{Category: "Paint", Name: "Primer", Quantity: -1, Cost: core.Money{Cents: 100}, Store: "Lowe's"},
		{Category: "Paint", Name: "Primer", Quantity: 1, Cost: core.Money{Cents: -100}, Store: "Lowe's"},
		{Category: "", Name: "Primer", Quantity: 1, Cost: core.Money{Cents: 100}, Store: "Lowe's"},
	}
	for _, it := range cases {
		err := repo.AddItem(ctx, it)
		if err == nil || !core.IsValidationError(err) {
			t.Fatalf("expected validation error for %+v, got %v", it, err)
		}
	}

	// Nothing was written.
	items, err := repo.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(items))
	}
}

func TestUpdateField(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addItem(t, repo, core.Item{
		Category: "Paint", Name: "Primer", Quantity: 2,
		Cost: core.Money{Cents: 1500}, Store: "Lowe's",
	})
	items, _ := repo.ListItems(ctx)
	id := items[0].ID

	t.Run("cost accepts currency symbol", func(t *testing.T) {
		if err := repo.UpdateField(ctx, id, core.FieldCost, "$12.50"); err != nil {
			t.Fatalf("update cost: %v", err)
		}
		items, _ := repo.ListItems(ctx)
		if items[0].Cost.Cents != 1250 {
			t.Fatalf("expected 1250 cents, got %d", items[0].Cost.Cents)
		}
		total, _ := repo.TotalCents(ctx)
		if total != 2500 {
			t.Fatalf("expected recalculated total 2500, got %d", total)
		}
	})

	t.Run("negative quantity rejected, row unchanged", func(t *testing.T) {
		err := repo.UpdateField(ctx, id, core.FieldQuantity, "-1")
		if !errors.Is(err, core.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
		items, _ := repo.ListItems(ctx)
		if items[0].Quantity != 2 {
			t.Fatalf("quantity changed to %d", items[0].Quantity)
		}
	})

	t.Run("empty text rejected", func(t *testing.T) {
		err := repo.UpdateField(ctx, id, core.FieldStore, "  ")
		if !errors.Is(err, core.ErrEmptyValue) {
			t.Fatalf("expected ErrEmptyValue, got %v", err)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		err := repo.UpdateField(ctx, id, "id", "99")
		if !errors.Is(err, core.ErrUnknownField) {
			t.Fatalf("expected ErrUnknownField, got %v", err)
		}
	})

	t.Run("text field updates", func(t *testing.T) {
		if err := repo.UpdateField(ctx, id, core.FieldNotes, "two coats"); err != nil {
			t.Fatalf("update notes: %v", err)
		}
		items, _ := repo.ListItems(ctx)
		if items[0].Notes != "two coats" {
			t.Fatalf("notes not updated: %q", items[0].Notes)
		}
	})
}

func TestGetField(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addItem(t, repo, core.Item{
		Category: "Paint", Name: "Primer", Quantity: 2,
		Cost: core.Money{Cents: 1505}, Store: "Lowe's",
	})
	items, _ := repo.ListItems(ctx)
	id := items[0].ID

	cost, err := repo.GetField(ctx, id, core.FieldCost)
	if err != nil || cost != "15.05" {
		t.Fatalf("expected cost \"15.05\", got %q (err=%v)", cost, err)
	}
	qty, err := repo.GetField(ctx, id, core.FieldQuantity)
	if err != nil || qty != "2" {
		t.Fatalf("expected quantity \"2\", got %q (err=%v)", qty, err)
	}
	found, err := repo.GetField(ctx, id, core.FieldFound)
	if err != nil || found != "false" {
		t.Fatalf("expected found \"false\", got %q (err=%v)", found, err)
	}

	if _, err := repo.GetField(ctx, 9999, core.FieldCost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetField(ctx, id, "nope"); !errors.Is(err, core.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestToggleFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addItem(t, repo, core.Item{
		Category: "Paint", Name: "Primer", Quantity: 1,
		Cost: core.Money{Cents: 100}, Store: "Lowe's",
	})
	items, _ := repo.ListItems(ctx)
	id := items[0].ID

	if err := repo.ToggleFound(ctx, id); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	items, _ = repo.ListItems(ctx)
	if !items[0].Found {
		t.Fatal("expected found after first toggle")
	}

	if err := repo.ToggleFound(ctx, id); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	items, _ = repo.ListItems(ctx)
	if items[0].Found {
		t.Fatal("expected original state after second toggle")
	}

	// Unknown id is a silent no-op.
	if err := repo.ToggleFound(ctx, 9999); err != nil {
		t.Fatalf("toggle unknown id: %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addItem(t, repo, core.Item{
		Category: "Paint", Name: "Primer", Quantity: 1,
		Cost: core.Money{Cents: 100}, Store: "Lowe's",
	})
	items, _ := repo.ListItems(ctx)

	if err := repo.RemoveItem(ctx, items[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, _ = repo.ListItems(ctx)
	if len(items) != 0 {
		t.Fatalf("expected empty list after remove, got %d", len(items))
	}
	total, _ := repo.TotalCents(ctx)
	if total != 0 {
		t.Fatalf("expected total 0 after remove, got %d", total)
	}

	if err := repo.RemoveItem(ctx, 9999); err != nil {
		t.Fatalf("remove unknown id: %v", err)
	}
}

func TestBudgetAppendOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetBudget(ctx, 100000); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if err := repo.SetBudget(ctx, 50000); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	current, err := repo.CurrentBudgetCents(ctx)
	if err != nil {
		t.Fatalf("current budget: %v", err)
	}
	if current != 50000 {
		t.Fatalf("expected latest record 50000, got %d", current)
	}

	// Prior records survive: the log keeps every insert.
	var count int
	if err := repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM budget").Scan(&count); err != nil {
		t.Fatalf("count budget rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 budget records, got %d", count)
	}

	if err := repo.SetBudget(ctx, -1); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		addItem(t, repo, core.Item{
			Category: "Paint", Name: name, Quantity: 1,
			Cost: core.Money{Cents: 100}, Store: "Lowe's",
		})
	}
	items, _ := repo.ListItems(ctx)
	if err := repo.ToggleFound(ctx, items[0].ID); err != nil { // newest becomes found
		t.Fatalf("toggle: %v", err)
	}

	items, err := repo.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Unfound first, newest first; the found item sorts last.
	if items[0].Name != "b" || items[1].Name != "a" || items[2].Name != "c" {
		t.Fatalf("unexpected order: %s, %s, %s", items[0].Name, items[1].Name, items[2].Name)
	}
	if !items[2].Found {
		t.Fatal("expected found item last")
	}
}
