package dto

import (
	"time"

	"github.com/spec-kit/squad-service/internal/domain"
)

// ProfileResponse is a profile as seen by its owner.
type ProfileResponse struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	TeamID       *string       `json:"team_id"`
	Position     *string       `json:"position"`
	JerseyNumber *int          `json:"jersey_number"`
	BirthDate    *string       `json:"birth_date"`
	Phone        *string       `json:"phone"`
	Roles        []domain.Role `json:"roles"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// MeResponse adds the active role to the caller's profile.
type MeResponse struct {
	ProfileResponse
	ActiveRole domain.Role `json:"active_role"`
}

// ProfileUpdateRequest carries partial profile changes. BirthDate is
// YYYY-MM-DD; empty strings clear optional fields.
type ProfileUpdateRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,notblank,max=120"`
	Position     *string `json:"position" validate:"omitempty,max=40"`
	JerseyNumber *int    `json:"jersey_number" validate:"omitempty,min=1,max=99"`
	ClearJersey  bool    `json:"clear_jersey_number"`
	BirthDate    *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone        *string `json:"phone" validate:"omitempty,max=30"`
}

// RosterEntry is a player as listed on a team roster.
type RosterEntry struct {
	ID           string  `json:"id"`
	FullName     string  `json:"full_name"`
	Position     *string `json:"position"`
	JerseyNumber *int    `json:"jersey_number"`
}
