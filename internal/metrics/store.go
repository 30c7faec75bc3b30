package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cookingwithklar/internal/llm"
)

// CompletionMetric records metadata for a single completion call.
type CompletionMetric struct {
	Caller           string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// timeLayout is the stored timestamp format. Plain text keeps sqlite's
// date() and range comparisons working regardless of driver time encoding.
const timeLayout = "2006-01-02 15:04:05"

// Store handles persistence of completion metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m CompletionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO completion_metrics (caller, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Caller, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, ts.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert completion metric: %w", err)
	}
	return nil
}

// ObserveCompletion records usage for one completion call. Recording is
// best-effort; failures never surface to the sourcing path.
func (s *Store) ObserveCompletion(caller string, usage llm.TokenUsage, latency time.Duration) {
	_ = s.Record(CompletionMetric{
		Caller:           caller,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
	})
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalCalls      int
}

// GetDailyUsage retrieves usage for the last N days.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(timeLayout)
	rows, err := s.db.Query(`
		SELECT date(timestamp) AS day, SUM(prompt_tokens), SUM(completion_tokens), COUNT(*)
		FROM completion_metrics WHERE timestamp >= ?
		GROUP BY day ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		var prompt, completion sql.NullInt64
		if err := rows.Scan(&u.Date, &prompt, &completion, &u.TotalCalls); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.TotalPrompt = int(prompt.Int64)
		u.TotalCompletion = int(completion.Int64)
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(olderThanDays int) error {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).UTC().Format(timeLayout)
	if _, err := s.db.Exec(`DELETE FROM completion_metrics WHERE timestamp < ?`, threshold); err != nil {
		return fmt.Errorf("failed to clean up completion metrics: %w", err)
	}
	return nil
}
