package survey

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = errors.New("survey submission not found")

// Repository is a database-backed repository for survey submissions.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Insert persists a new submission and returns it with identity and timestamps set.
func (r *Repository) Insert(ctx context.Context, s Submission) (Submission, error) {
	s.ID = uuid.NewString()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	restrictionsJSON, err := json.Marshal(emptyIfNil(s.DietaryRestrictions))
	if err != nil {
		return Submission{}, fmt.Errorf("failed to marshal dietary restrictions: %w", err)
	}
	proteinsJSON, err := json.Marshal(emptyIfNil(s.Proteins))
	if err != nil {
		return Submission{}, fmt.Errorf("failed to marshal proteins: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO survey_submissions (
			id, created_at, updated_at, people, breakfasts, lunches, dinners, days,
			location, dietary_restrictions, other_restriction, sensitivities,
			cooking_time, leftovers, pantry_items, cuisines, proteins, session_id, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.CreatedAt, s.UpdatedAt, s.People, s.Breakfasts, s.Lunches, s.Dinners, s.Days,
		s.Location, string(restrictionsJSON), s.OtherRestriction, s.Sensitivities,
		s.CookingTime, s.Leftovers, s.PantryItems, s.Cuisines, string(proteinsJSON), s.SessionID, s.UserID,
	)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to insert survey submission: %w", err)
	}
	return s, nil
}

// Get retrieves a submission by ID.
func (r *Repository) Get(ctx context.Context, id string) (Submission, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, people, breakfasts, lunches, dinners, days,
			location, dietary_restrictions, other_restriction, sensitivities,
			cooking_time, leftovers, pantry_items, cuisines, proteins, session_id, user_id
		FROM survey_submissions WHERE id = ?`, id)

	var s Submission
	var restrictionsJSON, proteinsJSON string
	err := row.Scan(
		&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.People, &s.Breakfasts, &s.Lunches, &s.Dinners, &s.Days,
		&s.Location, &restrictionsJSON, &s.OtherRestriction, &s.Sensitivities,
		&s.CookingTime, &s.Leftovers, &s.PantryItems, &s.Cuisines, &proteinsJSON, &s.SessionID, &s.UserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, fmt.Errorf("failed to get survey submission: %w", err)
	}

	if err := json.Unmarshal([]byte(restrictionsJSON), &s.DietaryRestrictions); err != nil {
		return Submission{}, fmt.Errorf("failed to unmarshal dietary restrictions: %w", err)
	}
	if err := json.Unmarshal([]byte(proteinsJSON), &s.Proteins); err != nil {
		return Submission{}, fmt.Errorf("failed to unmarshal proteins: %w", err)
	}
	return s, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
