package domain

import "time"

// CallupStatus tracks a player's answer to a callup.
type CallupStatus string

const (
	CallupStatusPending   CallupStatus = "pending"
	CallupStatusConfirmed CallupStatus = "confirmed"
	CallupStatusDeclined  CallupStatus = "declined"
)

// Valid reports whether s is a known status.
func (s CallupStatus) Valid() bool {
	switch s {
	case CallupStatusPending, CallupStatusConfirmed, CallupStatusDeclined:
		return true
	}
	return false
}

// CallupResponse is one player's attendance row for an activity.
type CallupResponse struct {
	ID          string
	ActivityID  string
	PlayerID    string
	Status      CallupStatus
	Note        *string
	RespondedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CallupSummary counts responses per status.
type CallupSummary struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Declined  int `json:"declined"`
}

// Total returns the number of players called up.
func (s CallupSummary) Total() int {
	return s.Pending + s.Confirmed + s.Declined
}

// Summarize counts responses by status.
func Summarize(responses []CallupResponse) CallupSummary {
	var summary CallupSummary
	for _, r := range responses {
		switch r.Status {
		case CallupStatusPending:
			summary.Pending++
		case CallupStatusConfirmed:
			summary.Confirmed++
		case CallupStatusDeclined:
			summary.Declined++
		}
	}
	return summary
}
