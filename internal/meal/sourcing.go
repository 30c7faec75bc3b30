package meal

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"cookingwithklar/internal/llm"
	"cookingwithklar/internal/survey"

	"go.uber.org/zap"
)

//go:embed meal_prompt.md
var mealPrompt string

//go:embed replacement_prompt.md
var replacementPrompt string

const batchSystemPrompt = `You are a professional meal planning assistant. Generate realistic, practical meal suggestions in valid JSON format. Each meal should include:
- name: Clear, appetizing meal name
- cook_time: Realistic cooking time (e.g., "25 min", "1 hour")
- servings: Number of servings (usually 1-4)
- ingredients: Array of specific ingredients with quantities when important
- instructions: Brief cooking instructions
- cuisine_type: Type of cuisine (e.g., "Italian", "Asian", "American")
- dietary_tags: Array of applicable tags (vegetarian, vegan, gluten-free, dairy-free)
- difficulty: "easy", "medium", or "hard"
- calories: Estimated calories per serving

Return ONLY a valid JSON array of meal objects. No additional text or formatting.`

const replacementSystemPrompt = `You are a professional meal planning assistant. Generate a realistic, practical meal suggestion in valid JSON format.

Return ONLY a valid JSON object (not an array) with this structure:
{
  "name": "Clear, appetizing meal name",
  "cook_time": "Realistic cooking time",
  "servings": number,
  "ingredients": ["ingredient1", "ingredient2"],
  "instructions": "Brief cooking instructions",
  "cuisine_type": "Type of cuisine",
  "dietary_tags": ["tag1", "tag2"],
  "difficulty": "easy|medium|hard",
  "calories": number
}`

// CompletionObserver records usage metadata for a single completion call.
type CompletionObserver interface {
	ObserveCompletion(caller string, usage llm.TokenUsage, latency time.Duration)
}

// AISourcer sources meals from a completion model, falling back to the
// curated meals on any sourcing failure.
type AISourcer struct {
	completer llm.Completer
	timeout   time.Duration
	observer  CompletionObserver
	logger    *zap.Logger
}

// NewAISourcer creates an AISourcer. observer may be nil.
func NewAISourcer(completer llm.Completer, timeout time.Duration, observer CompletionObserver, logger *zap.Logger) *AISourcer {
	return &AISourcer{
		completer: completer,
		timeout:   timeout,
		observer:  observer,
		logger:    logger,
	}
}

// SourceMeals produces up to count meals of the given type. Every sourcing
// failure (transport, timeout, malformed JSON, schema violation) is absorbed
// by the curated fallback; an error is returned only when ctx itself is done.
func (s *AISourcer) SourceMeals(ctx context.Context, form survey.FormData, mealType Type, count int) ([]Meal, error) {
	prompt, err := buildBatchPrompt(form, mealType, count)
	if err != nil {
		s.logger.Warn("failed to build meal prompt, using fallback meals",
			zap.String("meal_type", string(mealType)), zap.Error(err))
		return FallbackMeals(mealType, count), nil
	}

	text, err := s.complete(ctx, "source_"+string(mealType), batchSystemPrompt, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("completion failed, using fallback meals",
			zap.String("meal_type", string(mealType)), zap.Error(err))
		return FallbackMeals(mealType, count), nil
	}

	meals, err := parseMealBatch(text, mealType)
	if err != nil {
		s.logger.Warn("invalid completion response, using fallback meals",
			zap.String("meal_type", string(mealType)), zap.Error(err))
		return FallbackMeals(mealType, count), nil
	}

	s.logger.Info("sourced meals",
		zap.String("meal_type", string(mealType)), zap.Int("count", len(meals)))
	return meals, nil
}

// SourceReplacement produces one meal of the given type different from
// current. Falls back to the first curated meal of the type on any failure.
func (s *AISourcer) SourceReplacement(ctx context.Context, form survey.FormData, mealType Type, current Meal) (Meal, error) {
	prompt, err := buildReplacementPrompt(form, mealType, current)
	if err == nil {
		var text string
		text, err = s.complete(ctx, "replace_"+string(mealType), replacementSystemPrompt, prompt)
		if err == nil {
			var replacement Meal
			replacement, err = parseSingleMeal(text, mealType)
			if err == nil {
				return replacement, nil
			}
		}
	}
	if ctx.Err() != nil {
		return Meal{}, ctx.Err()
	}

	s.logger.Warn("replacement sourcing failed, using fallback meal",
		zap.String("meal_type", string(mealType)), zap.Error(err))
	fallback := FallbackMeals(mealType, 1)
	if len(fallback) == 0 {
		return Meal{}, fmt.Errorf("no fallback meal available for type %q", mealType)
	}
	return fallback[0], nil
}

// complete runs a single completion attempt under the sourcing timeout.
func (s *AISourcer) complete(ctx context.Context, caller, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.completer.Complete(callCtx, systemPrompt, userPrompt)
	if s.observer != nil {
		s.observer.ObserveCompletion(caller, resp.Usage, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

type promptData struct {
	Count            int
	Plural           string
	MealType         string
	People           int
	Days             int
	Location         string
	Restrictions     string
	OtherRestriction string
	Sensitivities    string
	Proteins         string
	CookingTime      string
	Leftovers        string
	Cuisines         string
	PantryItems      string
	Focus            string
	CurrentName      string
}

var mealTypeFocus = map[Type]string{
	TypeBreakfast: "Focus on nutritious, energizing meals",
	TypeLunch:     "Consider portability and prep-ahead options",
	TypeDinner:    "Focus on satisfying, complete meals",
}

var (
	batchTmpl       = template.Must(template.New("meal").Parse(mealPrompt))
	replacementTmpl = template.Must(template.New("replacement").Parse(replacementPrompt))
)

func newPromptData(form survey.FormData, mealType Type) promptData {
	return promptData{
		MealType:         string(mealType),
		People:           form.People,
		Days:             form.Meals.Days,
		Location:         orDefault(form.Location, "Not specified"),
		Restrictions:     orDefault(strings.Join(form.DietaryRestrictions, ", "), "None"),
		OtherRestriction: orDefault(form.OtherRestriction, "None"),
		Sensitivities:    orDefault(form.Sensitivities, "None"),
		Proteins:         orDefault(strings.Join(form.Proteins, ", "), "Any"),
		CookingTime:      orDefault(form.CookingTime, "Not specified"),
		Leftovers:        orDefault(form.Leftovers, "Not specified"),
		Cuisines:         orDefault(form.Cuisines, "Any"),
		PantryItems:      orDefault(form.PantryItems, "None specified"),
		Focus:            mealTypeFocus[mealType],
	}
}

func buildBatchPrompt(form survey.FormData, mealType Type, count int) (string, error) {
	data := newPromptData(form, mealType)
	data.Count = count
	if count > 1 {
		data.Plural = "s"
	}

	var buf bytes.Buffer
	if err := batchTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildReplacementPrompt(form survey.FormData, mealType Type, current Meal) (string, error) {
	data := newPromptData(form, mealType)
	data.CurrentName = current.Name

	var buf bytes.Buffer
	if err := replacementTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// rawMeal is the shape expected from the model. Ingredients and tags are
// kept raw so a non-array value degrades to empty instead of failing.
type rawMeal struct {
	Name         string          `json:"name"`
	CookTime     string          `json:"cook_time"`
	Servings     int             `json:"servings"`
	Ingredients  json.RawMessage `json:"ingredients"`
	Instructions string          `json:"instructions"`
	CuisineType  string          `json:"cuisine_type"`
	DietaryTags  json.RawMessage `json:"dietary_tags"`
	Difficulty   string          `json:"difficulty"`
	Calories     *int            `json:"calories"`
}

// stripCodeFences removes an optional markdown code fence wrapping.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	} else {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// parseMealBatch parses the model output into validated meals. A single
// object is wrapped into a one-element batch. Any element missing name or
// cook_time fails the whole batch.
func parseMealBatch(text string, mealType Type) ([]Meal, error) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var raws []rawMeal
	switch cleaned[0] {
	case '[':
		if err := json.Unmarshal([]byte(cleaned), &raws); err != nil {
			return nil, fmt.Errorf("invalid JSON response: %w", err)
		}
	case '{':
		var one rawMeal
		if err := json.Unmarshal([]byte(cleaned), &one); err != nil {
			return nil, fmt.Errorf("invalid JSON response: %w", err)
		}
		raws = []rawMeal{one}
	default:
		return nil, fmt.Errorf("response is not a JSON object or array")
	}

	meals := make([]Meal, 0, len(raws))
	for i, raw := range raws {
		if raw.Name == "" || raw.CookTime == "" {
			return nil, fmt.Errorf("invalid meal data at index %d: missing required fields", i)
		}
		meals = append(meals, normalize(raw, mealType, false))
	}
	return meals, nil
}

// parseSingleMeal parses the replacement-path output, which must be a single
// object.
func parseSingleMeal(text string, mealType Type) (Meal, error) {
	cleaned := stripCodeFences(text)
	if cleaned == "" || cleaned[0] != '{' {
		return Meal{}, fmt.Errorf("response is not a JSON object")
	}

	var raw rawMeal
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return Meal{}, fmt.Errorf("invalid JSON response: %w", err)
	}
	if raw.Name == "" || raw.CookTime == "" {
		return Meal{}, fmt.Errorf("invalid meal data: missing required fields")
	}
	return normalize(raw, mealType, true), nil
}

// normalize applies the defaults shared by both sourcing paths. The
// replacement path additionally defaults the cuisine type.
func normalize(raw rawMeal, mealType Type, replacement bool) Meal {
	m := Meal{
		Name:         raw.Name,
		MealType:     mealType,
		CookTime:     raw.CookTime,
		Servings:     raw.Servings,
		Ingredients:  stringSlice(raw.Ingredients),
		Instructions: raw.Instructions,
		CuisineType:  raw.CuisineType,
		DietaryTags:  stringSlice(raw.DietaryTags),
		Difficulty:   Difficulty(raw.Difficulty),
		Calories:     raw.Calories,
	}
	if m.Servings <= 0 {
		m.Servings = 1
	}
	if m.Difficulty == "" {
		m.Difficulty = DifficultyEasy
	}
	if replacement && m.CuisineType == "" {
		m.CuisineType = "American"
	}
	return m
}

func stringSlice(raw json.RawMessage) []string {
	var values []string
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil || values == nil {
		return []string{}
	}
	return values
}
