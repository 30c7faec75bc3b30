package meal

import "time"

// Type is the slot a meal belongs to. Closed set.
type Type string

const (
	TypeBreakfast Type = "breakfast"
	TypeLunch     Type = "lunch"
	TypeDinner    Type = "dinner"
)

// Types lists all meal types in planning order.
var Types = []Type{TypeBreakfast, TypeLunch, TypeDinner}

// Valid reports whether t is one of the closed set of meal types.
func (t Type) Valid() bool {
	switch t {
	case TypeBreakfast, TypeLunch, TypeDinner:
		return true
	}
	return false
}

// Difficulty of preparing a meal.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Meal is a single sourced meal. Never mutated after creation; plan items
// reference it.
type Meal struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	Name         string     `json:"name"`
	MealType     Type       `json:"meal_type"`
	CookTime     string     `json:"cook_time"`
	Servings     int        `json:"servings"`
	Ingredients  []string   `json:"ingredients"`
	Instructions string     `json:"instructions,omitempty"`
	CuisineType  string     `json:"cuisine_type,omitempty"`
	DietaryTags  []string   `json:"dietary_tags"`
	Difficulty   Difficulty `json:"difficulty"`
	Calories     *int       `json:"calories,omitempty"`
	ProteinG     *int       `json:"protein_g,omitempty"`
	CarbsG       *int       `json:"carbs_g,omitempty"`
	FatG         *int       `json:"fat_g,omitempty"`
}
