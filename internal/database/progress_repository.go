package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/reflectbot/pkg/models"
)

// UserProgressRepository handles database operations for per-user rotation
// state. It is the only component allowed to mutate persisted progress;
// every mutation is last-write-wins at the single-user granularity.
type UserProgressRepository struct{}

// NewUserProgressRepository creates a new repository instance
func NewUserProgressRepository() *UserProgressRepository {
	return &UserProgressRepository{}
}

// Get returns the progress record for a user, or (nil, nil) when the user
// has never been shown a prompt.
func (r *UserProgressRepository) Get(ctx context.Context, userID string) (*models.UserProgress, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	query := db.Rebind(`
		SELECT user_id, total_prompts_shown, last_prompt_category, last_prompt_text, last_shown_at, shown_in_cycle
		FROM user_progress
		WHERE user_id = ?
	`)

	var (
		progress  models.UserProgress
		lastShown sql.NullTime
		cycleJSON string
	)
	err = db.QueryRowContext(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.TotalPromptsShown,
		&progress.LastPromptCategory,
		&progress.LastPromptText,
		&lastShown,
		&cycleJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user progress", err)
	}

	if lastShown.Valid {
		t := lastShown.Time.UTC()
		progress.LastShownAt = &t
	}
	progress.ShownInCycle = make(map[models.Category][]string)
	if cycleJSON != "" {
		if err := json.Unmarshal([]byte(cycleJSON), &progress.ShownInCycle); err != nil {
			return nil, fmt.Errorf("failed to parse shown_in_cycle: %w", err)
		}
	}
	return &progress, nil
}

// RecordShown durably records that text was shown to the user for category.
// A first call creates the record with a count of 1; later calls increment
// the count and append to the category's cycle set, clearing it first when
// the selector reported a new cycle. The lastPrompt fields are overwritten
// every time.
func (r *UserProgressRepository) RecordShown(ctx context.Context, userID string, category models.Category, text string, isNewCycle bool) error {
	progress, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if progress == nil {
		progress = &models.UserProgress{
			UserID:       userID,
			ShownInCycle: make(map[models.Category][]string),
		}
	}

	if isNewCycle {
		progress.ShownInCycle[category] = nil
	}
	progress.ShownInCycle[category] = append(progress.ShownInCycle[category], text)
	progress.TotalPromptsShown++
	progress.LastPromptCategory = category
	progress.LastPromptText = text
	now := time.Now().UTC()
	progress.LastShownAt = &now

	cycleJSON, err := json.Marshal(progress.ShownInCycle)
	if err != nil {
		return fmt.Errorf("failed to marshal shown_in_cycle: %w", err)
	}

	db, err := conn()
	if err != nil {
		return err
	}
	query := db.Rebind(`
		INSERT INTO user_progress (user_id, total_prompts_shown, last_prompt_category, last_prompt_text, last_shown_at, shown_in_cycle, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			total_prompts_shown = excluded.total_prompts_shown,
			last_prompt_category = excluded.last_prompt_category,
			last_prompt_text = excluded.last_prompt_text,
			last_shown_at = excluded.last_shown_at,
			shown_in_cycle = excluded.shown_in_cycle,
			updated_at = excluded.updated_at
	`)
	_, err = db.ExecContext(ctx, query,
		progress.UserID,
		progress.TotalPromptsShown,
		progress.LastPromptCategory,
		progress.LastPromptText,
		now,
		string(cycleJSON),
		now,
	)
	if err != nil {
		return storeErr("record shown", err)
	}
	return nil
}
