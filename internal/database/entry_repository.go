package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/reflectbot/pkg/models"
)

// EntryRepository handles database operations for journal entries
type EntryRepository struct{}

// NewEntryRepository creates a new repository instance
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{}
}

// Create stores a new journal entry and returns it with id and timestamp set.
func (r *EntryRepository) Create(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	db, err := conn()
	if err != nil {
		return models.JournalEntry{}, err
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()

	query := db.Rebind(`
		INSERT INTO journal_entries (id, user_id, prompt_category, prompt_text, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err = db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.PromptCategory,
		entry.PromptText,
		entry.Response,
		entry.CreatedAt,
	)
	if err != nil {
		return models.JournalEntry{}, storeErr("create journal entry", err)
	}
	return entry, nil
}

// RecentForUser returns the user's newest entries, most recent first.
func (r *EntryRepository) RecentForUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	query := db.Rebind(`
		SELECT id, user_id, prompt_category, prompt_text, response, created_at
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)
	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, storeErr("list journal entries", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var entry models.JournalEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.PromptCategory,
			&entry.PromptText,
			&entry.Response,
			&entry.CreatedAt,
		); err != nil {
			return nil, storeErr("scan journal entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list journal entries", err)
	}
	return entries, nil
}
