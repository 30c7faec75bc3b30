package grocery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ActiveItem is one non-removed plan item joined with its meal's
// ingredients, as the aggregator consumes it.
type ActiveItem struct {
	MealID      string
	Ingredients []string
	Doubled     bool
}

// ItemSource yields the active plan items for a plan.
type ItemSource interface {
	ActiveItems(ctx context.Context, planID string) ([]ActiveItem, error)
}

// ListStore persists grocery lists and their items.
type ListStore interface {
	GetListByPlan(ctx context.Context, planID string) (List, error)
	CreateList(ctx context.Context, list List) (List, error)
	DeleteItems(ctx context.Context, listID string) error
	InsertItems(ctx context.Context, items []Item) error
}

// Aggregator builds a plan's grocery list from its active items.
type Aggregator struct {
	source ItemSource
	store  ListStore
	logger *zap.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(source ItemSource, store ListStore, logger *zap.Logger) *Aggregator {
	return &Aggregator{source: source, store: store, logger: logger}
}

// Generate (re)builds the grocery list for a plan. Idempotent: the list row
// is created on first use and its items are deleted before every rebuild, so
// exactly one list exists per plan at any time.
func (a *Aggregator) Generate(ctx context.Context, planID string) error {
	items, err := a.source.ActiveItems(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to load active plan items: %w", err)
	}

	list, err := a.store.GetListByPlan(ctx, planID)
	if errors.Is(err, ErrNotFound) {
		list, err = a.store.CreateList(ctx, List{
			MealPlanID: planID,
			Title:      "Weekly Grocery List",
			Status:     ListActive,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to resolve grocery list: %w", err)
	}

	if err := a.store.DeleteItems(ctx, list.ID); err != nil {
		return fmt.Errorf("failed to clear grocery list items: %w", err)
	}

	// Exact-string dedup keyed on the ingredient text, emitted in
	// first-encounter order. No case/plural/unit normalization.
	quantities := make(map[string]int)
	sources := make(map[string][]string)
	var order []string

	for _, item := range items {
		multiplier := 1
		if item.Doubled {
			multiplier = 2
		}
		for _, ingredient := range item.Ingredients {
			if _, seen := quantities[ingredient]; !seen {
				order = append(order, ingredient)
			}
			quantities[ingredient] += multiplier
			sources[ingredient] = append(sources[ingredient], item.MealID)
		}
	}

	groceryItems := make([]Item, 0, len(order))
	for i, name := range order {
		quantity := "1 portion"
		if n := quantities[name]; n > 1 {
			quantity = fmt.Sprintf("%d portions", n)
		}
		groceryItems = append(groceryItems, Item{
			GroceryListID: list.ID,
			ItemName:      name,
			Quantity:      quantity,
			Category:      Categorize(name),
			SourceMealIDs: sources[name],
			OrderIndex:    i,
		})
	}

	if len(groceryItems) > 0 {
		if err := a.store.InsertItems(ctx, groceryItems); err != nil {
			return fmt.Errorf("failed to insert grocery list items: %w", err)
		}
	}

	a.logger.Info("generated grocery list",
		zap.String("meal_plan_id", planID),
		zap.Int("item_count", len(groceryItems)))
	return nil
}
