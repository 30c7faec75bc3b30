package acceptance_tests

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cookingwithklar/internal/database"
	"cookingwithklar/internal/grocery"
	"cookingwithklar/internal/llm"
	"cookingwithklar/internal/meal"
	"cookingwithklar/internal/plan"
	"cookingwithklar/internal/survey"

	"go.uber.org/zap"
)

// --- Mock Completer ---
type mockCompleter struct {
	completeCalls int
}

func (m *mockCompleter) Complete(_ context.Context, _, userPrompt string) (llm.Completion, error) {
	m.completeCalls++

	if strings.Contains(userPrompt, "breakfast") {
		return llm.Completion{Text: `[
			{"name": "Spinach Omelette", "cook_time": "15 min", "servings": 2,
			 "ingredients": ["Eggs", "Spinach", "Olive oil"],
			 "instructions": "Whisk eggs, fold in spinach, fry",
			 "cuisine_type": "American", "dietary_tags": ["vegetarian"],
			 "difficulty": "easy", "calories": 320}
		]`}, nil
	}

	return llm.Completion{Text: `[
		{"name": "Garlic Chicken", "cook_time": "30 min", "servings": 2,
		 "ingredients": ["Chicken breast", "Olive oil", "Broccoli"],
		 "instructions": "Sear chicken, roast broccoli",
		 "cuisine_type": "American", "dietary_tags": [], "difficulty": "medium", "calories": 480},
		{"name": "Baked Salmon", "cook_time": "25 min", "servings": 2,
		 "ingredients": ["Salmon fillet", "Olive oil", "Brown rice"],
		 "instructions": "Bake salmon, steam rice",
		 "cuisine_type": "American", "dietary_tags": ["gluten-free"], "difficulty": "easy", "calories": 520}
	]`}, nil
}

type testApp struct {
	orchestrator *plan.Orchestrator
	procedure    *plan.Procedure
	surveys      *survey.Repository
	completer    *mockCompleter
	close        func()
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	surveyRepo := survey.NewRepository(db.SQL)
	mealRepo := meal.NewRepository(db.SQL)
	planRepo := plan.NewRepository(db.SQL)
	groceryRepo := grocery.NewRepository(db.SQL)

	aggregator := grocery.NewAggregator(planRepo, groceryRepo, logger)
	completer := &mockCompleter{}
	sourcer := meal.NewAISourcer(completer, 5*time.Second, nil, logger)
	procedure := plan.NewProcedure(db.SQL, mealRepo, aggregator)
	orchestrator := plan.NewOrchestrator(
		surveyRepo, mealRepo, planRepo, sourcer, procedure, aggregator, groceryRepo, logger,
	)

	return &testApp{
		orchestrator: orchestrator,
		procedure:    procedure,
		surveys:      surveyRepo,
		completer:    completer,
	}
}

func groceryQuantity(t *testing.T, view plan.View, name string) string {
	t.Helper()
	if view.GroceryList == nil {
		t.Fatal("Expected a grocery list on the plan")
	}
	for _, item := range view.GroceryList.Items {
		if item.ItemName == name {
			return item.Quantity
		}
	}
	return ""
}

func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	form := survey.FormData{
		People: 2,
		Meals:  survey.MealCounts{Breakfasts: 1, Dinners: 2, Days: 7},
	}

	// --- Step 1: Generate a plan from the questionnaire ---
	t.Log("--- Step 1: Generating Meal Plan ---")
	planID, err := app.orchestrator.GeneratePlan(ctx, form, "session-1")
	if err != nil {
		t.Fatalf("Plan generation failed: %v", err)
	}
	if app.completer.completeCalls != 2 {
		t.Errorf("Expected 2 completion calls (breakfast + dinner), got %d", app.completer.completeCalls)
	}

	view, err := app.orchestrator.GetPlan(ctx, planID)
	if err != nil {
		t.Fatalf("Failed to load plan: %v", err)
	}
	if len(view.Items) != 3 {
		t.Fatalf("Expected 3 plan items, got %d", len(view.Items))
	}

	// Dates must survive the write-read round trip through the store.
	if view.MealPlan.StartDate.IsZero() {
		t.Error("Expected a non-zero start date after reload")
	}
	if got := view.MealPlan.EndDate.Sub(view.MealPlan.StartDate); got != plan.PlanDuration {
		t.Errorf("Expected a one-week plan span, got %v", got)
	}
	for _, item := range view.Items {
		if item.Meal == nil {
			t.Fatalf("Expected meal joined on item %s", item.ID)
		}
		if item.PlannedDate.Before(view.MealPlan.StartDate) || item.PlannedDate.After(view.MealPlan.EndDate) {
			t.Errorf("Expected planned date within the plan span, got %v", item.PlannedDate)
		}
	}

	// Olive oil appears in all three meals and should be aggregated.
	if got := groceryQuantity(t, view, "Olive oil"); got != "3 portions" {
		t.Errorf("Expected Olive oil at '3 portions', got %q", got)
	}
	if got := groceryQuantity(t, view, "Eggs"); got != "1 portion" {
		t.Errorf("Expected Eggs at '1 portion', got %q", got)
	}

	// --- Step 2: Double a dinner and watch the list follow ---
	t.Log("--- Step 2: Doubling an Item ---")
	var dinnerID string
	for _, item := range view.Items {
		if item.MealType == meal.TypeDinner && item.Meal.Name == "Garlic Chicken" {
			dinnerID = item.ID
		}
	}
	if dinnerID == "" {
		t.Fatal("Expected the Garlic Chicken dinner in the plan")
	}

	if err := app.orchestrator.DoubleItem(ctx, dinnerID); err != nil {
		t.Fatalf("Doubling item failed: %v", err)
	}
	view, err = app.orchestrator.GetPlan(ctx, planID)
	if err != nil {
		t.Fatalf("Failed to reload plan: %v", err)
	}
	if got := groceryQuantity(t, view, "Olive oil"); got != "4 portions" {
		t.Errorf("Expected Olive oil at '4 portions' after doubling, got %q", got)
	}

	// --- Step 3: Remove the doubled dinner ---
	t.Log("--- Step 3: Removing an Item ---")
	if err := app.orchestrator.RemoveItem(ctx, dinnerID); err != nil {
		t.Fatalf("Removing item failed: %v", err)
	}
	view, err = app.orchestrator.GetPlan(ctx, planID)
	if err != nil {
		t.Fatalf("Failed to reload plan: %v", err)
	}
	if got := groceryQuantity(t, view, "Olive oil"); got != "2 portions" {
		t.Errorf("Expected Olive oil at '2 portions' after removal, got %q", got)
	}
	if got := groceryQuantity(t, view, "Broccoli"); got != "" {
		t.Errorf("Expected Broccoli gone after removing its only meal, got %q", got)
	}
	if len(view.Items) != 3 {
		t.Errorf("Expected removed item to stay in the plan as a flagged row, got %d items", len(view.Items))
	}
}

func TestDatabaseGenerationPath(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	sub, err := app.surveys.Insert(ctx, survey.Submission{
		People:     2,
		Breakfasts: 1,
		Lunches:    1,
		Dinners:    2,
		Days:       7,
	})
	if err != nil {
		t.Fatalf("Failed to insert survey: %v", err)
	}

	planID, err := app.procedure.GenerateMealPlan(ctx, sub.ID, "")
	if err != nil {
		t.Fatalf("Database generation failed: %v", err)
	}

	view, err := app.orchestrator.GetPlan(ctx, planID)
	if err != nil {
		t.Fatalf("Failed to load plan: %v", err)
	}
	if len(view.Items) != 4 {
		t.Fatalf("Expected 4 plan items from the catalog, got %d", len(view.Items))
	}
	for _, item := range view.Items {
		if !strings.HasPrefix(item.MealID, "catalog-") {
			t.Errorf("Expected catalog meal, got %q", item.MealID)
		}
	}
	if view.GroceryList == nil || len(view.GroceryList.Items) == 0 {
		t.Error("Expected a populated grocery list for the catalog plan")
	}
	if app.completer.completeCalls != 0 {
		t.Errorf("Expected no completion calls on the database path, got %d", app.completer.completeCalls)
	}
}
