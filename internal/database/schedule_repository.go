package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/reflectbot/pkg/models"
)

// ScheduleRepository handles database operations for per-user delivery
// preferences. Absence of a record means the user is simply not eligible
// for delivery; it is never treated as an error.
type ScheduleRepository struct{}

// NewScheduleRepository creates a new repository instance
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{}
}

// Get returns a user's schedule preference, or (nil, nil) when none exists.
func (r *ScheduleRepository) Get(ctx context.Context, userID string) (*models.SchedulePreference, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	query := db.Rebind(`
		SELECT user_id, day_of_week, hour, minute, enabled, last_updated
		FROM schedule_prefs
		WHERE user_id = ?
	`)

	var pref models.SchedulePreference
	err = db.QueryRowContext(ctx, query, userID).Scan(
		&pref.UserID,
		&pref.DayOfWeek,
		&pref.Hour,
		&pref.Minute,
		&pref.Enabled,
		&pref.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get schedule", err)
	}
	return &pref, nil
}

// Upsert creates or replaces a user's schedule preference.
func (r *ScheduleRepository) Upsert(ctx context.Context, pref models.SchedulePreference) error {
	db, err := conn()
	if err != nil {
		return err
	}
	query := db.Rebind(`
		INSERT INTO schedule_prefs (user_id, day_of_week, hour, minute, enabled, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			day_of_week = excluded.day_of_week,
			hour = excluded.hour,
			minute = excluded.minute,
			enabled = excluded.enabled,
			last_updated = excluded.last_updated
	`)
	_, err = db.ExecContext(ctx, query,
		pref.UserID,
		pref.DayOfWeek,
		pref.Hour,
		pref.Minute,
		pref.Enabled,
		time.Now().UTC(),
	)
	if err != nil {
		return storeErr("upsert schedule", err)
	}
	return nil
}

// SetEnabled flips delivery on or off without touching the slot.
func (r *ScheduleRepository) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	db, err := conn()
	if err != nil {
		return err
	}
	query := db.Rebind(`
		UPDATE schedule_prefs
		SET enabled = ?, last_updated = ?
		WHERE user_id = ?
	`)
	_, err = db.ExecContext(ctx, query, enabled, time.Now().UTC(), userID)
	if err != nil {
		return storeErr("set schedule enabled", err)
	}
	return nil
}

// ListAll returns every schedule preference, for the dispatcher's
// eligibility scan.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.SchedulePreference, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, day_of_week, hour, minute, enabled, last_updated
		FROM schedule_prefs
	`)
	if err != nil {
		return nil, storeErr("list schedules", err)
	}
	defer rows.Close()

	var prefs []models.SchedulePreference
	for rows.Next() {
		var pref models.SchedulePreference
		if err := rows.Scan(
			&pref.UserID,
			&pref.DayOfWeek,
			&pref.Hour,
			&pref.Minute,
			&pref.Enabled,
			&pref.LastUpdated,
		); err != nil {
			return nil, storeErr("scan schedule", err)
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list schedules", err)
	}
	return prefs, nil
}
