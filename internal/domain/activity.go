package domain

import "time"

// ActivityType classifies calendar entries.
type ActivityType string

const (
	ActivityTypeTraining ActivityType = "training"
	ActivityTypeMatch    ActivityType = "match"
	ActivityTypeMeeting  ActivityType = "meeting"
	ActivityTypeOther    ActivityType = "other"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeTraining, ActivityTypeMatch, ActivityTypeMeeting, ActivityTypeOther:
		return true
	}
	return false
}

// Activity is a time-boxed team event (training, match, ...).
type Activity struct {
	ID          string
	TeamID      string
	Type        ActivityType
	Title       string
	Description string
	Location    string
	Opponent    *string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Duration returns the scheduled length of the activity.
func (a *Activity) Duration() time.Duration {
	return a.EndsAt.Sub(a.StartsAt)
}
