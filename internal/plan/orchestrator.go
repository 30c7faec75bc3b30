package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cookingwithklar/internal/grocery"
	"cookingwithklar/internal/meal"
	"cookingwithklar/internal/survey"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stages of one generation request. Failures before sourcing abort the
// request; from sourcing onward the pipeline degrades instead of failing.
const (
	stagePersistSurvey   = "persist survey"
	stageCreatePlan      = "create meal plan"
	stageSourceMeals     = "source meals"
	stagePersistItems    = "persist plan items"
	stageGenerateGrocery = "generate grocery list"
)

// SurveyStore persists and reloads survey submissions.
type SurveyStore interface {
	Insert(ctx context.Context, s survey.Submission) (survey.Submission, error)
	Get(ctx context.Context, id string) (survey.Submission, error)
}

// MealStore persists sourced meals.
type MealStore interface {
	Insert(ctx context.Context, m meal.Meal) (meal.Meal, error)
}

// Store persists meal plans and their items.
type Store interface {
	InsertPlan(ctx context.Context, p MealPlan) (MealPlan, error)
	GetPlan(ctx context.Context, id string) (MealPlan, error)
	DeletePlan(ctx context.Context, id string) error
	InsertItem(ctx context.Context, item Item) (Item, error)
	ListItems(ctx context.Context, planID string) ([]Item, error)
	GetItem(ctx context.Context, itemID string) (Item, error)
	UpdateItem(ctx context.Context, itemID string, patch ItemPatch) error
}

// Sourcer produces meals for a preference set, from the completion model or
// a fallback catalog.
type Sourcer interface {
	SourceMeals(ctx context.Context, form survey.FormData, mealType meal.Type, count int) ([]meal.Meal, error)
	SourceReplacement(ctx context.Context, form survey.FormData, mealType meal.Type, current meal.Meal) (meal.Meal, error)
}

// GroceryGenerator rebuilds a plan's grocery list.
type GroceryGenerator interface {
	Generate(ctx context.Context, planID string) error
}

// GroceryReader reads back a plan's grocery list.
type GroceryReader interface {
	GetListByPlan(ctx context.Context, planID string) (grocery.List, error)
	ListItems(ctx context.Context, listID string) ([]grocery.Item, error)
}

// ProcedureRunner is the database generation path, the equivalent of the
// hosted store's generate_meal_plan procedure.
type ProcedureRunner interface {
	GenerateMealPlan(ctx context.Context, surveyID, userID string) (string, error)
}

// Orchestrator drives the survey-to-plan pipeline and the item mutations
// that keep the plan and its grocery list consistent.
type Orchestrator struct {
	surveys   SurveyStore
	meals     MealStore
	store     Store
	sourcer   Sourcer
	procedure ProcedureRunner
	grocery   GroceryGenerator
	groceries GroceryReader
	logger    *zap.Logger

	// now is swappable for deterministic dates in tests.
	now func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	surveys SurveyStore,
	meals MealStore,
	store Store,
	sourcer Sourcer,
	procedure ProcedureRunner,
	groceryGen GroceryGenerator,
	groceries GroceryReader,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		surveys:   surveys,
		meals:     meals,
		store:     store,
		sourcer:   sourcer,
		procedure: procedure,
		grocery:   groceryGen,
		groceries: groceries,
		logger:    logger,
		now:       time.Now,
	}
}

// GeneratePlan runs the full pipeline for one questionnaire submission and
// returns the resulting plan ID. Survey and plan persistence failures are
// fatal; a sourcing failure falls back to the database path; per-meal
// persistence and grocery generation failures degrade the result instead of
// failing it.
func (o *Orchestrator) GeneratePlan(ctx context.Context, form survey.FormData, sessionID string) (string, error) {
	if err := form.Validate(); err != nil {
		return "", fmt.Errorf("invalid form data: %w", err)
	}

	sub, err := o.surveys.Insert(ctx, survey.FromForm(form, sessionID))
	if err != nil {
		return "", fmt.Errorf("%s: %w", stagePersistSurvey, err)
	}
	o.logger.Info("survey submitted", zap.String("survey_id", sub.ID))

	startDate := o.now().UTC().Truncate(24 * time.Hour)
	p, err := o.store.InsertPlan(ctx, MealPlan{
		SurveySubmissionID: sub.ID,
		Title:              "AI-Generated Weekly Meal Plan",
		StartDate:          startDate,
		EndDate:            startDate.Add(PlanDuration),
		Status:             StatusActive,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", stageCreatePlan, err)
	}
	o.logger.Info("meal plan created", zap.String("meal_plan_id", p.ID))

	batches, err := o.sourceAll(ctx, form)
	if err != nil {
		// The three sourcing calls are one atomic unit: any failure
		// discards already-sourced meals and reruns generation through
		// the database path against the persisted survey.
		o.logger.Warn("AI sourcing failed, falling back to database generation", zap.Error(err))

		if delErr := o.store.DeletePlan(ctx, p.ID); delErr != nil {
			o.logger.Warn("failed to delete abandoned meal plan", zap.String("meal_plan_id", p.ID), zap.Error(delErr))
		}

		fallbackID, fbErr := o.procedure.GenerateMealPlan(ctx, sub.ID, "")
		if fbErr != nil {
			return "", fmt.Errorf("both AI and database meal generation failed (sourcing: %v; database: %v)", err, fbErr)
		}
		o.logger.Info("fallback meal plan generated", zap.String("meal_plan_id", fallbackID))
		return fallbackID, nil
	}

	o.persistBatches(ctx, p, batches)

	if err := o.grocery.Generate(ctx, p.ID); err != nil {
		// A plan without a grocery list beats no plan.
		o.logger.Warn("grocery list generation failed",
			zap.String("stage", stageGenerateGrocery), zap.String("meal_plan_id", p.ID), zap.Error(err))
	}

	o.logger.Info("meal plan generation completed", zap.String("meal_plan_id", p.ID))
	return p.ID, nil
}

// sourceAll runs the per-type sourcing calls concurrently as one unit.
func (o *Orchestrator) sourceAll(ctx context.Context, form survey.FormData) (map[meal.Type][]meal.Meal, error) {
	counts := map[meal.Type]int{
		meal.TypeBreakfast: form.Meals.Breakfasts,
		meal.TypeLunch:     form.Meals.Lunches,
		meal.TypeDinner:    form.Meals.Dinners,
	}

	// Each goroutine writes its own slot; the map is assembled after Wait.
	results := make([][]meal.Meal, len(meal.Types))
	g, gctx := errgroup.WithContext(ctx)
	for i, mealType := range meal.Types {
		count := counts[mealType]
		if count <= 0 {
			continue
		}
		i, mealType := i, mealType
		g.Go(func() error {
			meals, err := o.sourcer.SourceMeals(gctx, form, mealType, count)
			if err != nil {
				return fmt.Errorf("%s (%s): %w", stageSourceMeals, mealType, err)
			}
			results[i] = meals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batches := make(map[meal.Type][]meal.Meal, len(counts))
	for i, mealType := range meal.Types {
		batches[mealType] = results[i]
	}
	return batches, nil
}

// persistBatches inserts sourced meals and their plan items, skipping
// individual failures.
func (o *Orchestrator) persistBatches(ctx context.Context, p MealPlan, batches map[meal.Type][]meal.Meal) {
	for _, mealType := range meal.Types {
		for idx, m := range batches[mealType] {
			inserted, err := o.meals.Insert(ctx, m)
			if err != nil {
				o.logger.Warn("failed to insert meal, skipping",
					zap.String("stage", stagePersistItems), zap.String("meal_name", m.Name), zap.Error(err))
				continue
			}

			_, err = o.store.InsertItem(ctx, Item{
				MealPlanID:  p.ID,
				MealID:      inserted.ID,
				PlannedDate: p.StartDate.AddDate(0, 0, idx),
				MealType:    mealType,
				OrderIndex:  idx + 1,
			})
			if err != nil {
				o.logger.Warn("failed to insert meal plan item, skipping",
					zap.String("stage", stagePersistItems), zap.String("meal_id", inserted.ID), zap.Error(err))
			}
		}
	}
}

// View is the read model for a plan: the plan, its items with meals joined,
// and its grocery list if one exists.
type View struct {
	MealPlan    MealPlan     `json:"meal_plan"`
	Items       []Item       `json:"items"`
	GroceryList *GroceryView `json:"grocery_list"`
}

// GroceryView is a grocery list with its items inlined.
type GroceryView struct {
	grocery.List
	Items []grocery.Item `json:"items"`
}

// GetPlan loads the full read model for a plan.
func (o *Orchestrator) GetPlan(ctx context.Context, planID string) (View, error) {
	p, err := o.store.GetPlan(ctx, planID)
	if err != nil {
		return View{}, err
	}

	items, err := o.store.ListItems(ctx, planID)
	if err != nil {
		return View{}, err
	}
	if items == nil {
		items = []Item{}
	}

	view := View{MealPlan: p, Items: items}

	list, err := o.groceries.GetListByPlan(ctx, planID)
	switch {
	case err == nil:
		groceryItems, err := o.groceries.ListItems(ctx, list.ID)
		if err != nil {
			return View{}, err
		}
		if groceryItems == nil {
			groceryItems = []grocery.Item{}
		}
		view.GroceryList = &GroceryView{List: list, Items: groceryItems}
	case errors.Is(err, grocery.ErrNotFound):
		// Degraded-success plans have no grocery list.
	default:
		return View{}, err
	}

	return view, nil
}
