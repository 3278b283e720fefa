package dto

import (
	"time"

	"github.com/spec-kit/squad-service/internal/domain"
)

// SendCallupRequest lists players to call up. Empty means the whole roster.
type SendCallupRequest struct {
	PlayerIDs []string `json:"player_ids" validate:"omitempty,dive,uuid"`
}

// SendCallupResponse reports who got a new callup.
type SendCallupResponse struct {
	ActivityID string   `json:"activity_id"`
	Requested  []string `json:"requested"`
	Added      []string `json:"added"`
}

// RespondCallupRequest is a player's answer.
type RespondCallupRequest struct {
	Status domain.CallupStatus `json:"status" validate:"required,oneof=confirmed declined"`
	Note   *string             `json:"note" validate:"omitempty,max=500"`
}

// CallupResponseItem is one player's attendance row.
type CallupResponseItem struct {
	ID          string              `json:"id"`
	ActivityID  string              `json:"activity_id"`
	PlayerID    string              `json:"player_id"`
	Status      domain.CallupStatus `json:"status"`
	Note        *string             `json:"note"`
	RespondedAt *time.Time          `json:"responded_at"`
}

// CallupOverviewResponse is the coach view of an activity's callup.
type CallupOverviewResponse struct {
	Activity  ActivityResponse     `json:"activity"`
	Responses []CallupResponseItem `json:"responses"`
	Summary   domain.CallupSummary `json:"summary"`
}

// PendingCallupItem is an unanswered callup in a player's inbox.
type PendingCallupItem struct {
	Response CallupResponseItem `json:"response"`
	Activity ActivityResponse   `json:"activity"`
}

// ScheduleCallupRequest defers a callup to SendAt.
type ScheduleCallupRequest struct {
	SendAt    time.Time `json:"send_at" validate:"required"`
	PlayerIDs []string  `json:"player_ids" validate:"omitempty,dive,uuid"`
}

// ScheduledCallupResponse describes a deferred callup.
type ScheduledCallupResponse struct {
	ID         string                       `json:"id"`
	ActivityID string                       `json:"activity_id"`
	TeamID     string                       `json:"team_id"`
	PlayerIDs  []string                     `json:"player_ids"`
	SendAt     time.Time                    `json:"send_at"`
	Status     domain.ScheduledCallupStatus `json:"status"`
	SentAt     *time.Time                   `json:"sent_at"`
	LastError  *string                      `json:"last_error"`
	CreatedBy  string                       `json:"created_by"`
	CreatedAt  time.Time                    `json:"created_at"`
}
