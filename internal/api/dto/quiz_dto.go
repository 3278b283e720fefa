package dto

import (
	"time"

	"github.com/spec-kit/squad-service/internal/quiz"
)

// QuizQuestionRequest is one question of a quiz payload.
type QuizQuestionRequest struct {
	Prompt       string   `json:"prompt" validate:"notblank,max=500"`
	Options      []string `json:"options" validate:"min=2,max=6,dive,notblank,max=200"`
	CorrectIndex int      `json:"correct_index" validate:"min=0"`
	Explanation  string   `json:"explanation" validate:"max=1000"`
}

// QuizRequest payload for creating or replacing a quiz.
type QuizRequest struct {
	Title       string                `json:"title" validate:"notblank,max=120"`
	Description string                `json:"description" validate:"max=2000"`
	Questions   []QuizQuestionRequest `json:"questions" validate:"required,min=1,max=50,dive"`
}

// QuizQuestionResponse shows a question. CorrectIndex and Explanation are
// only filled for coaches.
type QuizQuestionResponse struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// QuizResponse describes a quiz.
type QuizResponse struct {
	ID          string                 `json:"id"`
	TeamID      string                 `json:"team_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Questions   []QuizQuestionResponse `json:"questions"`
	CreatedBy   string                 `json:"created_by"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// AssignQuizRequest assigns a quiz. Empty PlayerIDs means the whole roster.
type AssignQuizRequest struct {
	PlayerIDs []string   `json:"player_ids" validate:"omitempty,dive,uuid"`
	DueDate   *time.Time `json:"due_date"`
}

// AssignmentResponse describes a theory assignment.
type AssignmentResponse struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quiz_id"`
	QuizTitle   string     `json:"quiz_title,omitempty"`
	Questions   int        `json:"questions,omitempty"`
	PlayerID    string     `json:"player_id"`
	TeamID      string     `json:"team_id"`
	DueDate     *time.Time `json:"due_date"`
	Score       *int       `json:"score"`
	Total       *int       `json:"total"`
	Attempts    int        `json:"attempts"`
	Completed   bool       `json:"completed"`
	Overdue     bool       `json:"overdue"`
	CompletedAt *time.Time `json:"completed_at"`
}

// AnswerRequest selects an option for the current question.
type AnswerRequest struct {
	Option *int `json:"option" validate:"required,min=0"`
}

// AttemptResponse is the player-facing state of an attempt.
type AttemptResponse struct {
	ID           string              `json:"id"`
	AssignmentID string              `json:"assignment_id"`
	QuizID       string              `json:"quiz_id"`
	Phase        quiz.Phase          `json:"phase"`
	Question     *quiz.QuestionView  `json:"question,omitempty"`
	Feedback     *quiz.Feedback      `json:"feedback,omitempty"`
	Result       *quiz.Result        `json:"result,omitempty"`
	Assignment   *AssignmentResponse `json:"assignment,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
