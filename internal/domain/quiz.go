package domain

import "time"

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct_index" yaml:"correct_index"`
	Explanation  string   `json:"explanation" yaml:"explanation"`
}

// CustomQuiz is a coach-authored theory quiz for a team.
type CustomQuiz struct {
	ID          string
	TeamID      string
	CreatedBy   string
	Title       string
	Description string
	Questions   []QuizQuestion
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TheoryAssignment records that a player must complete a quiz.
type TheoryAssignment struct {
	ID          string
	QuizID      string
	PlayerID    string
	TeamID      string
	AssignedBy  string
	DueDate     *time.Time
	Score       *int
	Total       *int
	Attempts    int
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Completed reports whether the player has finished the quiz at least once.
func (a *TheoryAssignment) Completed() bool {
	return a.CompletedAt != nil
}

// Overdue reports whether the due date passed without completion.
func (a *TheoryAssignment) Overdue(now time.Time) bool {
	return a.DueDate != nil && !a.Completed() && now.After(*a.DueDate)
}
