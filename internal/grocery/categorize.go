package grocery

import "strings"

// categoryKeywords holds the keyword lists in match-priority order. An
// ingredient matching several lists resolves to the earliest category, so
// additions must preserve the ordering.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryProteins, []string{"chicken", "beef", "salmon", "turkey", "egg", "fish", "pork", "lamb"}},
	{CategoryDairy, []string{"milk", "cheese", "yogurt", "butter", "cream"}},
	{CategoryProduce, []string{"tomato", "onion", "pepper", "lettuce", "spinach", "broccoli", "carrot", "avocado", "cucumber", "berries", "banana", "apple", "fruit", "vegetable"}},
	{CategoryPantry, []string{"rice", "pasta", "bread", "oats", "quinoa", "flour", "oil", "vinegar", "spice", "sauce", "stock", "broth"}},
}

// Categorize files an ingredient under a shopping category by substring
// matching against the keyword lists. First match wins.
func Categorize(item string) Category {
	lower := strings.ToLower(item)
	for _, group := range categoryKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return group.category
			}
		}
	}
	return CategoryOther
}
