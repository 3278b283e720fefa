package domain

import "time"

// Team is a squad owned by one coach. Players join it with Code.
type Team struct {
	ID        string
	Name      string
	Category  string
	Code      string
	CoachID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether coachID manages the team.
func (t *Team) OwnedBy(coachID string) bool {
	return t.CoachID == coachID
}
