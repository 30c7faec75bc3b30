package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cookingwithklar/internal/grocery"
	"cookingwithklar/internal/meal"

	"github.com/google/uuid"
)

// Errors returned by the repository.
var (
	ErrPlanNotFound = errors.New("meal plan not found")
	ErrItemNotFound = errors.New("meal plan item not found")
)

const dateLayout = "2006-01-02"

// Repository is a database-backed repository for meal plans and their items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// InsertPlan persists a new meal plan and returns it with identity set.
func (r *Repository) InsertPlan(ctx context.Context, p MealPlan) (MealPlan, error) {
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, created_at, updated_at, survey_submission_id, user_id, title, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CreatedAt, p.UpdatedAt, p.SurveySubmissionID, p.UserID, p.Title,
		p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout), string(p.Status),
	)
	if err != nil {
		return MealPlan{}, fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return p, nil
}

// GetPlan retrieves a meal plan by ID.
func (r *Repository) GetPlan(ctx context.Context, id string) (MealPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, survey_submission_id, user_id, title, start_date, end_date, status
		FROM meal_plans WHERE id = ?`, id)

	// DATE columns come back as time.Time from the driver.
	var p MealPlan
	var status string
	err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.SurveySubmissionID, &p.UserID, &p.Title, &p.StartDate, &p.EndDate, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MealPlan{}, ErrPlanNotFound
		}
		return MealPlan{}, fmt.Errorf("failed to get meal plan: %w", err)
	}
	p.Status = Status(status)
	return p, nil
}

// DeletePlan removes a meal plan. Used when abandoning the empty plan after
// an AI sourcing failure; items and grocery lists cascade.
func (r *Repository) DeletePlan(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	return nil
}

// InsertItem persists a new plan item.
func (r *Repository) InsertItem(ctx context.Context, item Item) (Item, error) {
	if !item.MealType.Valid() {
		return Item{}, fmt.Errorf("invalid meal type %q", item.MealType)
	}
	item.ID = uuid.NewString()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_plan_items (
			id, created_at, updated_at, meal_plan_id, meal_id, planned_date,
			meal_type, order_index, is_removed, is_doubled, custom_servings, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.CreatedAt, item.UpdatedAt, item.MealPlanID, item.MealID,
		item.PlannedDate.Format(dateLayout), string(item.MealType), item.OrderIndex,
		item.IsRemoved, item.IsDoubled, item.CustomServings, item.Notes,
	)
	if err != nil {
		return Item{}, fmt.Errorf("failed to insert meal plan item: %w", err)
	}
	return item, nil
}

const itemColumns = `
	i.id, i.created_at, i.updated_at, i.meal_plan_id, i.meal_id, i.planned_date,
	i.meal_type, i.order_index, i.is_removed, i.is_doubled, i.custom_servings, i.notes,
	m.id, m.created_at, m.name, m.meal_type, m.cook_time, m.servings, m.ingredients,
	m.instructions, m.cuisine_type, m.dietary_tags, m.difficulty, m.calories,
	m.protein_g, m.carbs_g, m.fat_g`

// GetItem retrieves a plan item with its meal joined.
func (r *Repository) GetItem(ctx context.Context, itemID string) (Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM meal_plan_items i JOIN meals m ON m.id = i.meal_id
		WHERE i.id = ?`, itemID)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("failed to get meal plan item: %w", err)
	}
	return item, nil
}

// ListItems retrieves a plan's items with meals joined, ordered by meal type
// then order index.
func (r *Repository) ListItems(ctx context.Context, planID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM meal_plan_items i JOIN meals m ON m.id = i.meal_id
		WHERE i.meal_plan_id = ?
		ORDER BY i.meal_type, i.order_index`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plan items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem applies a partial update to a plan item.
func (r *Repository) UpdateItem(ctx context.Context, itemID string, patch ItemPatch) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC()}

	if patch.MealID != nil {
		set += ", meal_id = ?"
		args = append(args, *patch.MealID)
	}
	if patch.IsRemoved != nil {
		set += ", is_removed = ?"
		args = append(args, *patch.IsRemoved)
	}
	if patch.IsDoubled != nil {
		set += ", is_doubled = ?"
		args = append(args, *patch.IsDoubled)
	}
	if patch.CustomServings != nil {
		set += ", custom_servings = ?"
		args = append(args, *patch.CustomServings)
	}
	if patch.Notes != nil {
		set += ", notes = ?"
		args = append(args, *patch.Notes)
	}
	args = append(args, itemID)

	res, err := r.db.ExecContext(ctx, "UPDATE meal_plan_items SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update meal plan item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ActiveItems yields the plan's non-removed items joined with their meal's
// ingredients, as consumed by the grocery aggregator.
func (r *Repository) ActiveItems(ctx context.Context, planID string) ([]grocery.ActiveItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.meal_id, i.is_doubled, m.ingredients
		FROM meal_plan_items i JOIN meals m ON m.id = i.meal_id
		WHERE i.meal_plan_id = ? AND i.is_removed = 0
		ORDER BY i.meal_type, i.order_index`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active items: %w", err)
	}
	defer rows.Close()

	var items []grocery.ActiveItem
	for rows.Next() {
		var item grocery.ActiveItem
		var ingredientsJSON string
		if err := rows.Scan(&item.MealID, &item.Doubled, &ingredientsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan active item: %w", err)
		}
		if err := json.Unmarshal([]byte(ingredientsJSON), &item.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var item Item
	var m meal.Meal
	var itemType, mealType, ingredientsJSON, tagsJSON string

	err := row.Scan(
		&item.ID, &item.CreatedAt, &item.UpdatedAt, &item.MealPlanID, &item.MealID, &item.PlannedDate,
		&itemType, &item.OrderIndex, &item.IsRemoved, &item.IsDoubled, &item.CustomServings, &item.Notes,
		&m.ID, &m.CreatedAt, &m.Name, &mealType, &m.CookTime, &m.Servings, &ingredientsJSON,
		&m.Instructions, &m.CuisineType, &tagsJSON, &m.Difficulty, &m.Calories,
		&m.ProteinG, &m.CarbsG, &m.FatG,
	)
	if err != nil {
		return Item{}, err
	}

	item.MealType = meal.Type(itemType)
	m.MealType = meal.Type(mealType)
	if err := json.Unmarshal([]byte(ingredientsJSON), &m.Ingredients); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.DietaryTags); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal dietary tags: %w", err)
	}
	item.Meal = &m
	return item, nil
}
