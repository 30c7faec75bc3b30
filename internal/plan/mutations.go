package plan

import (
	"context"
	"fmt"

	"cookingwithklar/internal/meal"
	"cookingwithklar/internal/survey"

	"go.uber.org/zap"
)

// Item mutations. Each one completes grocery regeneration before returning
// so the plan and its grocery list never observably diverge.

func boolPtr(b bool) *bool { return &b }

// RemoveItem flags an item as removed. Removal clears the doubled flag and
// never deletes or reindexes; order_index holes are expected.
func (o *Orchestrator) RemoveItem(ctx context.Context, itemID string) error {
	item, err := o.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	patch := ItemPatch{IsRemoved: boolPtr(true), IsDoubled: boolPtr(false)}
	if err := o.store.UpdateItem(ctx, itemID, patch); err != nil {
		return err
	}
	return o.regenerate(ctx, item.MealPlanID)
}

// DoubleItem toggles an item's doubled flag.
func (o *Orchestrator) DoubleItem(ctx context.Context, itemID string) error {
	item, err := o.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	patch := ItemPatch{IsDoubled: boolPtr(!item.IsDoubled)}
	if err := o.store.UpdateItem(ctx, itemID, patch); err != nil {
		return err
	}
	return o.regenerate(ctx, item.MealPlanID)
}

// ReplaceItem repoints an item at a freshly sourced meal of the same type
// and clears both flags. The persisted survey is re-read so the sourcing
// context matches the original request rather than live UI state; it also
// serves as the preference set when the caller sends no form data.
func (o *Orchestrator) ReplaceItem(ctx context.Context, itemID string, form survey.FormData, current meal.Meal) error {
	item, err := o.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	p, err := o.store.GetPlan(ctx, item.MealPlanID)
	if err != nil {
		return err
	}
	sub, err := o.surveys.Get(ctx, p.SurveySubmissionID)
	if err != nil {
		return fmt.Errorf("failed to reload survey for plan %s: %w", p.ID, err)
	}
	if form.IsZero() {
		form = sub.ToForm()
	}
	if current.Name == "" && item.Meal != nil {
		current = *item.Meal
	}

	replacement, err := o.sourcer.SourceReplacement(ctx, form, item.MealType, current)
	if err != nil {
		return fmt.Errorf("failed to source replacement meal: %w", err)
	}

	inserted, err := o.meals.Insert(ctx, replacement)
	if err != nil {
		return fmt.Errorf("failed to insert replacement meal: %w", err)
	}
	o.logger.Info("replaced meal",
		zap.String("item_id", itemID),
		zap.String("old_meal", current.Name),
		zap.String("new_meal", inserted.Name))

	patch := ItemPatch{
		MealID:    &inserted.ID,
		IsRemoved: boolPtr(false),
		IsDoubled: boolPtr(false),
	}
	if err := o.store.UpdateItem(ctx, itemID, patch); err != nil {
		return err
	}
	return o.regenerate(ctx, item.MealPlanID)
}

// UpdateItem applies a generic patch. The grocery list is regenerated only
// when the patch changes what the list aggregates over.
func (o *Orchestrator) UpdateItem(ctx context.Context, itemID string, patch ItemPatch) error {
	item, err := o.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := o.store.UpdateItem(ctx, itemID, patch); err != nil {
		return err
	}
	if patch.TouchesGrocery() {
		return o.regenerate(ctx, item.MealPlanID)
	}
	return nil
}

func (o *Orchestrator) regenerate(ctx context.Context, planID string) error {
	if err := o.grocery.Generate(ctx, planID); err != nil {
		return fmt.Errorf("failed to regenerate grocery list: %w", err)
	}
	return nil
}
