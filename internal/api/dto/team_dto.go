package dto

import "time"

// TeamRequest payload for creating or editing a team.
type TeamRequest struct {
	Name     string `json:"name" validate:"notblank,max=80"`
	Category string `json:"category" validate:"max=40"`
}

// TeamUpdateRequest allows partial edits.
type TeamUpdateRequest struct {
	Name     string `json:"name" validate:"max=80"`
	Category string `json:"category" validate:"max=40"`
}

// JoinTeamRequest payload for joining with a code.
type JoinTeamRequest struct {
	Code string `json:"code" validate:"required,teamcode"`
}

// TeamResponse describes a team. Code is only shown to its coach.
type TeamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Code      string    `json:"code,omitempty"`
	CoachID   string    `json:"coach_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
