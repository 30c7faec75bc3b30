package meal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a meal does not exist.
var ErrNotFound = errors.New("meal not found")

// Repository is a database-backed repository for meals.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Insert persists a sourced meal and returns it with identity and timestamp set.
func (r *Repository) Insert(ctx context.Context, m Meal) (Meal, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()

	ingredientsJSON, err := json.Marshal(m.Ingredients)
	if err != nil {
		return Meal{}, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	tagsJSON, err := json.Marshal(m.DietaryTags)
	if err != nil {
		return Meal{}, fmt.Errorf("failed to marshal dietary tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meals (
			id, created_at, name, meal_type, cook_time, servings, ingredients,
			instructions, cuisine_type, dietary_tags, difficulty, calories,
			protein_g, carbs_g, fat_g, is_catalog
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		m.ID, m.CreatedAt, m.Name, string(m.MealType), m.CookTime, m.Servings, string(ingredientsJSON),
		m.Instructions, m.CuisineType, string(tagsJSON), string(m.Difficulty), m.Calories,
		m.ProteinG, m.CarbsG, m.FatG,
	)
	if err != nil {
		return Meal{}, fmt.Errorf("failed to insert meal: %w", err)
	}
	return m, nil
}

// Get retrieves a meal by ID.
func (r *Repository) Get(ctx context.Context, id string) (Meal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, meal_type, cook_time, servings, ingredients,
			instructions, cuisine_type, dietary_tags, difficulty, calories,
			protein_g, carbs_g, fat_g
		FROM meals WHERE id = ?`, id)

	m, err := scanMeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Meal{}, ErrNotFound
		}
		return Meal{}, fmt.Errorf("failed to get meal: %w", err)
	}
	return m, nil
}

// PickCatalog returns up to count random catalog meals of the given type.
// This backs the database generation path.
func (r *Repository) PickCatalog(ctx context.Context, mealType Type, count int) ([]Meal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, name, meal_type, cook_time, servings, ingredients,
			instructions, cuisine_type, dietary_tags, difficulty, calories,
			protein_g, carbs_g, fat_g
		FROM meals WHERE is_catalog = 1 AND meal_type = ?
		ORDER BY RANDOM() LIMIT ?`, string(mealType), count)
	if err != nil {
		return nil, fmt.Errorf("failed to pick catalog meals: %w", err)
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (Meal, error) {
	var m Meal
	var mealType, difficulty, ingredientsJSON, tagsJSON string
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.Name, &mealType, &m.CookTime, &m.Servings, &ingredientsJSON,
		&m.Instructions, &m.CuisineType, &tagsJSON, &difficulty, &m.Calories,
		&m.ProteinG, &m.CarbsG, &m.FatG,
	)
	if err != nil {
		return Meal{}, err
	}
	m.MealType = Type(mealType)
	m.Difficulty = Difficulty(difficulty)

	if err := json.Unmarshal([]byte(ingredientsJSON), &m.Ingredients); err != nil {
		return Meal{}, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.DietaryTags); err != nil {
		return Meal{}, fmt.Errorf("failed to unmarshal dietary tags: %w", err)
	}
	return m, nil
}
