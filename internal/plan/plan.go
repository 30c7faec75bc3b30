package plan

import (
	"time"

	"cookingwithklar/internal/meal"
)

// Status is the lifecycle state of a meal plan.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
)

// PlanDuration is the fixed span of a generated plan.
const PlanDuration = 7 * 24 * time.Hour

// MealPlan is one generated weekly schedule for a survey submission.
type MealPlan struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	SurveySubmissionID string    `json:"survey_submission_id"`
	UserID             string    `json:"user_id,omitempty"`
	Title              string    `json:"title"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Status             Status    `json:"status"`
}

// Item is one scheduled occurrence of a meal within a plan. Items are never
// deleted, only flagged or repointed at a different meal.
type Item struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MealPlanID     string    `json:"meal_plan_id"`
	MealID         string    `json:"meal_id"`
	PlannedDate    time.Time `json:"planned_date"`
	MealType       meal.Type `json:"meal_type"`
	OrderIndex     int       `json:"order_index"`
	IsRemoved      bool      `json:"is_removed"`
	IsDoubled      bool      `json:"is_doubled"`
	CustomServings *int      `json:"custom_servings,omitempty"`
	Notes          string    `json:"notes,omitempty"`

	// Meal is the joined meal row, populated on reads.
	Meal *meal.Meal `json:"meal,omitempty"`
}

// ItemPatch is a partial update of a plan item.
type ItemPatch struct {
	MealID         *string `json:"meal_id,omitempty"`
	IsRemoved      *bool   `json:"is_removed,omitempty"`
	IsDoubled      *bool   `json:"is_doubled,omitempty"`
	CustomServings *int    `json:"custom_servings,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// TouchesGrocery reports whether applying the patch requires regenerating
// the plan's grocery list.
func (p ItemPatch) TouchesGrocery() bool {
	return p.MealID != nil || p.IsRemoved != nil || p.IsDoubled != nil
}
