package meal

func intPtr(n int) *int { return &n }

// fallbackMeals are the curated meals served when AI sourcing fails. The
// fallback path itself never fails; it may return fewer meals than requested.
var fallbackMeals = map[Type][]Meal{
	TypeBreakfast: {
		{
			Name:         "Scrambled Eggs with Toast",
			MealType:     TypeBreakfast,
			CookTime:     "15 min",
			Servings:     1,
			Ingredients:  []string{"Eggs", "Bread", "Butter", "Salt", "Pepper"},
			Instructions: "Scramble eggs in butter, serve with toasted bread",
			CuisineType:  "American",
			DietaryTags:  []string{"vegetarian"},
			Difficulty:   DifficultyEasy,
			Calories:     intPtr(350),
		},
		{
			Name:         "Overnight Oats",
			MealType:     TypeBreakfast,
			CookTime:     "5 min prep",
			Servings:     1,
			Ingredients:  []string{"Oats", "Milk", "Honey", "Berries"},
			Instructions: "Mix ingredients, refrigerate overnight",
			CuisineType:  "American",
			DietaryTags:  []string{"vegetarian"},
			Difficulty:   DifficultyEasy,
			Calories:     intPtr(300),
		},
	},
	TypeLunch: {
		{
			Name:         "Turkey Sandwich",
			MealType:     TypeLunch,
			CookTime:     "10 min",
			Servings:     1,
			Ingredients:  []string{"Bread", "Turkey", "Lettuce", "Tomato", "Mayo"},
			Instructions: "Assemble sandwich with fresh ingredients",
			CuisineType:  "American",
			DietaryTags:  []string{},
			Difficulty:   DifficultyEasy,
			Calories:     intPtr(400),
		},
	},
	TypeDinner: {
		{
			Name:         "Grilled Chicken with Vegetables",
			MealType:     TypeDinner,
			CookTime:     "30 min",
			Servings:     2,
			Ingredients:  []string{"Chicken breast", "Mixed vegetables", "Olive oil", "Seasonings"},
			Instructions: "Grill chicken and roast vegetables",
			CuisineType:  "American",
			DietaryTags:  []string{"gluten-free"},
			Difficulty:   DifficultyMedium,
			Calories:     intPtr(450),
		},
	},
}

// FallbackMeals returns up to count curated meals for the given type.
func FallbackMeals(mealType Type, count int) []Meal {
	candidates := fallbackMeals[mealType]
	if count > len(candidates) {
		count = len(candidates)
	}
	if count < 0 {
		count = 0
	}

	meals := make([]Meal, count)
	for i := 0; i < count; i++ {
		m := candidates[i]
		m.Ingredients = append([]string(nil), m.Ingredients...)
		m.DietaryTags = append([]string(nil), m.DietaryTags...)
		meals[i] = m
	}
	return meals
}
