package domain

import "time"

// ScheduledCallupStatus enumerates lifecycle states of a deferred callup.
type ScheduledCallupStatus string

const (
	ScheduledCallupStatusScheduled ScheduledCallupStatus = "scheduled"
	ScheduledCallupStatusSending   ScheduledCallupStatus = "sending"
	ScheduledCallupStatusSent      ScheduledCallupStatus = "sent"
	ScheduledCallupStatusCancelled ScheduledCallupStatus = "cancelled"
	ScheduledCallupStatusFailed    ScheduledCallupStatus = "failed"
)

// ScheduledCallup is a callup the worker sends at SendAt. An empty PlayerIDs
// list means the whole roster at send time.
type ScheduledCallup struct {
	ID         string
	ActivityID string
	TeamID     string
	PlayerIDs  []string
	SendAt     time.Time
	Status     ScheduledCallupStatus
	SentAt     *time.Time
	LastError  *string
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
