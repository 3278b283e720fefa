// Package quiz runs theory quiz attempts one question at a time.
//
// An attempt moves through three phases. In PhaseQuestion the player sees the
// current prompt and options. Answering moves it to PhaseAnswered, where the
// correct option and the explanation are revealed. Next advances to the
// following question or, after the last one, to PhaseFinished where the
// result is available.
package quiz

import (
	"errors"
	"time"

	"github.com/spec-kit/squad-service/internal/domain"
)

// Phase is the position of an attempt in the question flow.
type Phase string

const (
	PhaseQuestion Phase = "question"
	PhaseAnswered Phase = "answered"
	PhaseFinished Phase = "finished"
)

var (
	ErrNoQuestions     = errors.New("quiz has no questions")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("question not answered yet")
	ErrFinished        = errors.New("attempt already finished")
	ErrNotFinished     = errors.New("attempt not finished")
	ErrInvalidOption   = errors.New("option out of range")
)

// Attempt is a single run through a quiz by one player.
type Attempt struct {
	ID           string                `json:"id"`
	AssignmentID string                `json:"assignment_id"`
	QuizID       string                `json:"quiz_id"`
	PlayerID     string                `json:"player_id"`
	Questions    []domain.QuizQuestion `json:"questions"`
	Index        int                   `json:"index"`
	Phase        Phase                 `json:"phase"`
	Answers      []int                 `json:"answers"`
	Correct      int                   `json:"correct"`
	StartedAt    time.Time             `json:"started_at"`
	FinishedAt   *time.Time            `json:"finished_at,omitempty"`
}

// QuestionView is what a player sees before answering. It never carries the
// correct option.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Feedback is revealed once the current question has been answered.
type Feedback struct {
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correct_index"`
	Correct      bool   `json:"correct"`
	Explanation  string `json:"explanation"`
	Last         bool   `json:"last"`
}

// Result summarizes a finished attempt.
type Result struct {
	Score   int `json:"score"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// NewAttempt starts an attempt on the first question of quiz.
func NewAttempt(id, assignmentID, playerID string, quiz *domain.CustomQuiz, now time.Time) (*Attempt, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	questions := make([]domain.QuizQuestion, len(quiz.Questions))
	copy(questions, quiz.Questions)

	answers := make([]int, len(questions))
	for i := range answers {
		answers[i] = -1
	}
	return &Attempt{
		ID:           id,
		AssignmentID: assignmentID,
		QuizID:       quiz.ID,
		PlayerID:     playerID,
		Questions:    questions,
		Phase:        PhaseQuestion,
		Answers:      answers,
		StartedAt:    now,
	}, nil
}

// Total is the number of questions.
func (a *Attempt) Total() int {
	return len(a.Questions)
}

// Current returns the question being shown.
func (a *Attempt) Current() (QuestionView, error) {
	if a.Phase == PhaseFinished {
		return QuestionView{}, ErrFinished
	}
	q := a.Questions[a.Index]
	return QuestionView{
		Index:   a.Index,
		Total:   a.Total(),
		Prompt:  q.Prompt,
		Options: q.Options,
	}, nil
}

// Answer records the selected option for the current question.
func (a *Attempt) Answer(option int) (Feedback, error) {
	switch a.Phase {
	case PhaseFinished:
		return Feedback{}, ErrFinished
	case PhaseAnswered:
		return Feedback{}, ErrAlreadyAnswered
	}
	q := a.Questions[a.Index]
	if option < 0 || option >= len(q.Options) {
		return Feedback{}, ErrInvalidOption
	}

	a.Answers[a.Index] = option
	if option == q.CorrectIndex {
		a.Correct++
	}
	a.Phase = PhaseAnswered
	return a.feedback(), nil
}

// Feedback returns the reveal for the current question once answered.
func (a *Attempt) Feedback() (Feedback, error) {
	if a.Phase != PhaseAnswered {
		return Feedback{}, ErrNotAnswered
	}
	return a.feedback(), nil
}

func (a *Attempt) feedback() Feedback {
	q := a.Questions[a.Index]
	selected := a.Answers[a.Index]
	return Feedback{
		Selected:     selected,
		CorrectIndex: q.CorrectIndex,
		Correct:      selected == q.CorrectIndex,
		Explanation:  q.Explanation,
		Last:         a.Index == a.Total()-1,
	}
}

// Next advances past an answered question. After the last question the
// attempt is finished and Result becomes available.
func (a *Attempt) Next(now time.Time) error {
	switch a.Phase {
	case PhaseFinished:
		return ErrFinished
	case PhaseQuestion:
		return ErrNotAnswered
	}
	if a.Index == a.Total()-1 {
		a.Phase = PhaseFinished
		a.FinishedAt = &now
		return nil
	}
	a.Index++
	a.Phase = PhaseQuestion
	return nil
}

// Result returns the score of a finished attempt.
func (a *Attempt) Result() (Result, error) {
	if a.Phase != PhaseFinished {
		return Result{}, ErrNotFinished
	}
	return Score(a.Correct, a.Total()), nil
}

// Score builds a Result. The percentage is rounded down.
func Score(correct, total int) Result {
	result := Result{Score: correct, Total: total}
	if total > 0 {
		result.Percent = correct * 100 / total
	}
	return result
}
