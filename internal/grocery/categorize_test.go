package grocery

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		item string
		want Category
	}{
		{"Chicken breast", CategoryProteins},
		{"Ground beef", CategoryProteins},
		{"Eggs", CategoryProteins},
		{"Greek yogurt", CategoryDairy},
		{"Butter", CategoryDairy},
		{"Broccoli", CategoryProduce},
		{"Cherry tomatoes", CategoryProduce},
		{"Mixed vegetables", CategoryProduce},
		{"Brown rice", CategoryPantry},
		{"Olive oil", CategoryPantry},
		{"Chicken stock", CategoryProteins}, // proteins outranks pantry
		{"Hummus", CategoryOther},
		{"Salt", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			if got := Categorize(tt.item); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.item, got, tt.want)
			}
		})
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	if got := Categorize("SALMON FILLET"); got != CategoryProteins {
		t.Errorf("Expected 'proteins' for uppercase input, got %q", got)
	}
}
