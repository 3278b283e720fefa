package domain

import "time"

// Profile is the account and personal data of a coach or player.
type Profile struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	TeamID       *string
	Position     *string
	JerseyNumber *int
	BirthDate    *time.Time
	Phone        *string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the profile holds role.
func (p *Profile) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BelongsTo reports whether the profile is on the roster of teamID.
func (p *Profile) BelongsTo(teamID string) bool {
	return p.TeamID != nil && *p.TeamID == teamID
}
