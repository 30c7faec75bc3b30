package plan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cookingwithklar/internal/meal"

	"github.com/google/uuid"
)

// CatalogPicker selects random seeded catalog meals by type.
type CatalogPicker interface {
	PickCatalog(ctx context.Context, mealType meal.Type, count int) ([]meal.Meal, error)
}

// Procedure is the database generation path: the port of the hosted store's
// generate_meal_plan procedure. It builds a plan from the seeded meal
// catalog, with no completion call involved.
type Procedure struct {
	db      *sql.DB
	catalog CatalogPicker
	grocery GroceryGenerator
}

// NewProcedure creates a Procedure.
func NewProcedure(d *sql.DB, catalog CatalogPicker, groceryGen GroceryGenerator) *Procedure {
	return &Procedure{db: d, catalog: catalog, grocery: groceryGen}
}

// GenerateMealPlan creates a plan for a persisted survey out of random
// catalog meals, then generates its grocery list. Plan and items are
// written in one transaction, like the procedure it replaces.
func (p *Procedure) GenerateMealPlan(ctx context.Context, surveyID, userID string) (string, error) {
	var breakfasts, lunches, dinners int
	row := p.db.QueryRowContext(ctx,
		`SELECT breakfasts, lunches, dinners FROM survey_submissions WHERE id = ?`, surveyID)
	if err := row.Scan(&breakfasts, &lunches, &dinners); err != nil {
		return "", fmt.Errorf("failed to load survey %s: %w", surveyID, err)
	}

	counts := map[meal.Type]int{
		meal.TypeBreakfast: breakfasts,
		meal.TypeLunch:     lunches,
		meal.TypeDinner:    dinners,
	}
	picked := make(map[meal.Type][]meal.Meal, len(counts))
	for _, mealType := range meal.Types {
		count := counts[mealType]
		if count <= 0 {
			continue
		}
		meals, err := p.catalog.PickCatalog(ctx, mealType, count)
		if err != nil {
			return "", fmt.Errorf("failed to pick catalog %ss: %w", mealType, err)
		}
		picked[mealType] = meals
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	startDate := now.Truncate(24 * time.Hour)
	planID := uuid.NewString()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_plans (id, created_at, updated_at, survey_submission_id, user_id, title, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		planID, now, now, surveyID, userID, "Weekly Meal Plan",
		startDate.Format(dateLayout), startDate.Add(PlanDuration).Format(dateLayout), string(StatusActive),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert meal plan: %w", err)
	}

	for _, mealType := range meal.Types {
		for idx, m := range picked[mealType] {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO meal_plan_items (
					id, created_at, updated_at, meal_plan_id, meal_id, planned_date,
					meal_type, order_index, is_removed, is_doubled, notes
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')`,
				uuid.NewString(), now, now, planID, m.ID,
				startDate.AddDate(0, 0, idx).Format(dateLayout), string(mealType), idx+1,
			)
			if err != nil {
				return "", fmt.Errorf("failed to insert meal plan item: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit meal plan: %w", err)
	}

	if err := p.grocery.Generate(ctx, planID); err != nil {
		return "", fmt.Errorf("failed to generate grocery list: %w", err)
	}
	return planID, nil
}
