package grocery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a grocery list or item does not exist.
var ErrNotFound = errors.New("grocery list not found")

// Repository is a database-backed repository for grocery lists and items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// GetListByPlan retrieves the grocery list owned by a meal plan.
func (r *Repository) GetListByPlan(ctx context.Context, planID string) (List, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, meal_plan_id, user_id, title, status
		FROM grocery_lists WHERE meal_plan_id = ?`, planID)

	var l List
	var status string
	err := row.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.MealPlanID, &l.UserID, &l.Title, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return List{}, ErrNotFound
		}
		return List{}, fmt.Errorf("failed to get grocery list: %w", err)
	}
	l.Status = ListStatus(status)
	return l, nil
}

// CreateList persists a new grocery list and returns it with identity set.
func (r *Repository) CreateList(ctx context.Context, l List) (List, error) {
	l.ID = uuid.NewString()
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = ListActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grocery_lists (id, created_at, updated_at, meal_plan_id, user_id, title, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CreatedAt, l.UpdatedAt, l.MealPlanID, l.UserID, l.Title, string(l.Status),
	)
	if err != nil {
		return List{}, fmt.Errorf("failed to insert grocery list: %w", err)
	}
	return l, nil
}

// DeleteItems removes every item of a grocery list.
func (r *Repository) DeleteItems(ctx context.Context, listID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM grocery_list_items WHERE grocery_list_id = ?`, listID)
	if err != nil {
		return fmt.Errorf("failed to delete grocery list items: %w", err)
	}
	return nil
}

// InsertItems persists a batch of grocery list items.
func (r *Repository) InsertItems(ctx context.Context, items []Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, item := range items {
		sourcesJSON, err := json.Marshal(item.SourceMealIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal source meal IDs: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO grocery_list_items (
				id, created_at, updated_at, grocery_list_id, item_name, quantity,
				category, is_checked, is_already_owned, source_meal_ids, order_index, notes
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), now, now, item.GroceryListID, item.ItemName, item.Quantity,
			string(item.Category), item.IsChecked, item.IsAlreadyOwned, string(sourcesJSON), item.OrderIndex, item.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert grocery list item %q: %w", item.ItemName, err)
		}
	}
	return tx.Commit()
}

// ListItems retrieves a grocery list's items in order.
func (r *Repository) ListItems(ctx context.Context, listID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at, grocery_list_id, item_name, quantity,
			category, is_checked, is_already_owned, source_meal_ids, order_index, notes
		FROM grocery_list_items WHERE grocery_list_id = ? ORDER BY order_index`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var category, sourcesJSON string
		err := rows.Scan(
			&item.ID, &item.CreatedAt, &item.UpdatedAt, &item.GroceryListID, &item.ItemName, &item.Quantity,
			&category, &item.IsChecked, &item.IsAlreadyOwned, &sourcesJSON, &item.OrderIndex, &item.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grocery item: %w", err)
		}
		item.Category = Category(category)
		if err := json.Unmarshal([]byte(sourcesJSON), &item.SourceMealIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source meal IDs: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem applies a partial update to a grocery list item.
func (r *Repository) UpdateItem(ctx context.Context, itemID string, patch ItemPatch) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC()}

	if patch.IsChecked != nil {
		set += ", is_checked = ?"
		args = append(args, *patch.IsChecked)
	}
	if patch.IsAlreadyOwned != nil {
		set += ", is_already_owned = ?"
		args = append(args, *patch.IsAlreadyOwned)
	}
	if patch.Notes != nil {
		set += ", notes = ?"
		args = append(args, *patch.Notes)
	}
	args = append(args, itemID)

	res, err := r.db.ExecContext(ctx, "UPDATE grocery_list_items SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update grocery item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
