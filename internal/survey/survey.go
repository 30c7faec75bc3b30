package survey

import (
	"fmt"
	"time"
)

// CookingTime is the questionnaire's cooking-time preference.
type CookingTime string

const (
	CookingTimeQuick  CookingTime = "quick"
	CookingTimeMixed  CookingTime = "mixed"
	CookingTimeLonger CookingTime = "longer"
)

// LeftoverPreference is the questionnaire's leftover preference.
type LeftoverPreference string

const (
	LeftoversLove  LeftoverPreference = "love"
	LeftoversSome  LeftoverPreference = "some"
	LeftoversFresh LeftoverPreference = "fresh"
)

// MealCounts holds the requested number of meals per type and the span in days.
type MealCounts struct {
	Breakfasts int `json:"breakfasts"`
	Lunches    int `json:"lunches"`
	Dinners    int `json:"dinners"`
	Days       int `json:"days"`
}

// FormData is the questionnaire payload submitted by the UI.
type FormData struct {
	People              int        `json:"people"`
	Meals               MealCounts `json:"meals"`
	Location            string     `json:"location"`
	DietaryRestrictions []string   `json:"dietaryRestrictions"`
	OtherRestriction    string     `json:"otherRestriction"`
	Sensitivities       string     `json:"sensitivities"`
	CookingTime         string     `json:"cookingTime"`
	Leftovers           string     `json:"leftovers"`
	PantryItems         string     `json:"pantryItems"`
	Cuisines            string     `json:"cuisines"`
	Proteins            []string   `json:"proteins"`
}

// IsZero reports whether no questionnaire field was filled in.
func (f FormData) IsZero() bool {
	return f.People == 0 && f.Meals == (MealCounts{}) && f.Location == "" &&
		len(f.DietaryRestrictions) == 0 && f.OtherRestriction == "" &&
		f.Sensitivities == "" && f.CookingTime == "" && f.Leftovers == "" &&
		f.PantryItems == "" && f.Cuisines == "" && len(f.Proteins) == 0
}

// Validate checks the form against the questionnaire's constraints.
func (f FormData) Validate() error {
	if f.People < 1 {
		return fmt.Errorf("people must be at least 1, got %d", f.People)
	}
	if f.Meals.Breakfasts < 0 || f.Meals.Lunches < 0 || f.Meals.Dinners < 0 {
		return fmt.Errorf("meal counts must not be negative")
	}
	if f.Meals.Days < 1 {
		return fmt.Errorf("days must be at least 1, got %d", f.Meals.Days)
	}
	switch CookingTime(f.CookingTime) {
	case "", CookingTimeQuick, CookingTimeMixed, CookingTimeLonger:
	default:
		return fmt.Errorf("unknown cooking time preference %q", f.CookingTime)
	}
	switch LeftoverPreference(f.Leftovers) {
	case "", LeftoversLove, LeftoversSome, LeftoversFresh:
	default:
		return fmt.Errorf("unknown leftover preference %q", f.Leftovers)
	}
	return nil
}

// Submission is a persisted survey. Immutable once created; a re-submission
// is a new row.
type Submission struct {
	ID                  string    `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	People              int       `json:"people"`
	Breakfasts          int       `json:"breakfasts"`
	Lunches             int       `json:"lunches"`
	Dinners             int       `json:"dinners"`
	Days                int       `json:"days"`
	Location            string    `json:"location"`
	DietaryRestrictions []string  `json:"dietary_restrictions"`
	OtherRestriction    string    `json:"other_restriction"`
	Sensitivities       string    `json:"sensitivities"`
	CookingTime         string    `json:"cooking_time"`
	Leftovers           string    `json:"leftovers"`
	PantryItems         string    `json:"pantry_items"`
	Cuisines            string    `json:"cuisines"`
	Proteins            []string  `json:"proteins"`
	SessionID           string    `json:"session_id,omitempty"`
	UserID              string    `json:"user_id,omitempty"`
}

// FromForm builds an unsaved Submission from a questionnaire payload.
func FromForm(form FormData, sessionID string) Submission {
	return Submission{
		People:              form.People,
		Breakfasts:          form.Meals.Breakfasts,
		Lunches:             form.Meals.Lunches,
		Dinners:             form.Meals.Dinners,
		Days:                form.Meals.Days,
		Location:            form.Location,
		DietaryRestrictions: form.DietaryRestrictions,
		OtherRestriction:    form.OtherRestriction,
		Sensitivities:       form.Sensitivities,
		CookingTime:         form.CookingTime,
		Leftovers:           form.Leftovers,
		PantryItems:         form.PantryItems,
		Cuisines:            form.Cuisines,
		Proteins:            form.Proteins,
		SessionID:           sessionID,
	}
}

// ToForm reconstructs the questionnaire payload from a persisted submission.
// Used to keep replacement sourcing consistent with the original request.
func (s Submission) ToForm() FormData {
	restrictions := s.DietaryRestrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	proteins := s.Proteins
	if proteins == nil {
		proteins = []string{}
	}
	return FormData{
		People: s.People,
		Meals: MealCounts{
			Breakfasts: s.Breakfasts,
			Lunches:    s.Lunches,
			Dinners:    s.Dinners,
			Days:       s.Days,
		},
		Location:            s.Location,
		DietaryRestrictions: restrictions,
		OtherRestriction:    s.OtherRestriction,
		Sensitivities:       s.Sensitivities,
		CookingTime:         s.CookingTime,
		Leftovers:           s.Leftovers,
		PantryItems:         s.PantryItems,
		Cuisines:            s.Cuisines,
		Proteins:            proteins,
	}
}
