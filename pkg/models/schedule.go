package models

import "time"

// Default delivery slot for new users: Monday 09:00
const (
	DefaultScheduleDay  = 1
	DefaultScheduleHour = 9
)

// SchedulePreference is a user's weekly delivery slot
type SchedulePreference struct {
	UserID      string    `json:"user_id" db:"user_id"`
	DayOfWeek   int       `json:"day_of_week" db:"day_of_week"` // 0=Sunday .. 6=Saturday, same as time.Weekday
	Hour        int       `json:"hour" db:"hour"`               // 0-23
	Minute      int       `json:"minute" db:"minute"`           // 0-59
	Enabled     bool      `json:"enabled" db:"enabled"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// DefaultSchedule returns the preference created for a user who has never
// configured one.
func DefaultSchedule(userID string) SchedulePreference {
	return SchedulePreference{
		UserID:    userID,
		DayOfWeek: DefaultScheduleDay,
		Hour:      DefaultScheduleHour,
		Minute:    0,
		Enabled:   true,
	}
}

// Matches reports whether the preference's slot is the one now falls in.
// Disabled preferences never match.
func (s SchedulePreference) Matches(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	return int(now.Weekday()) == s.DayOfWeek && now.Hour() == s.Hour && now.Minute() == s.Minute
}
