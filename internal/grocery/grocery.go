package grocery

import "time"

// ListStatus is the lifecycle state of a grocery list.
type ListStatus string

const (
	ListActive    ListStatus = "active"
	ListCompleted ListStatus = "completed"
	ListArchived  ListStatus = "archived"
)

// Category is the shopping aisle a grocery item is filed under.
type Category string

const (
	CategoryProteins Category = "proteins"
	CategoryProduce  Category = "produce"
	CategoryPantry   Category = "pantry"
	CategoryDairy    Category = "dairy"
	CategoryOther    Category = "other"
)

// List is the single grocery list owned by a meal plan. It is recreated,
// not patched, whenever any plan item changes.
type List struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	MealPlanID string     `json:"meal_plan_id"`
	UserID     string     `json:"user_id,omitempty"`
	Title      string     `json:"title"`
	Status     ListStatus `json:"status"`
}

// Item is one aggregated ingredient on a grocery list. ItemName is the
// deduplication key and is unique within the list.
type Item struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	GroceryListID  string    `json:"grocery_list_id"`
	ItemName       string    `json:"item_name"`
	Quantity       string    `json:"quantity,omitempty"`
	Category       Category  `json:"category"`
	IsChecked      bool      `json:"is_checked"`
	IsAlreadyOwned bool      `json:"is_already_owned"`
	SourceMealIDs  []string  `json:"source_meal_ids"`
	OrderIndex     int       `json:"order_index"`
	Notes          string    `json:"notes,omitempty"`
}

// ItemPatch is a partial update of a grocery list item's user-facing flags.
type ItemPatch struct {
	IsChecked      *bool   `json:"is_checked,omitempty"`
	IsAlreadyOwned *bool   `json:"is_already_owned,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}
