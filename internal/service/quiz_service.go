package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/quiz"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// QuizService manages custom quizzes authored by coaches.
type QuizService struct {
	quizzes repository.QuizRepository
	access  teamAccess
	publisher
}

// NewQuizService constructs the service.
func NewQuizService(quizzes repository.QuizRepository, teams repository.TeamRepository, dispatcher events.Dispatcher, logger *zap.Logger) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		access:    teamAccess{teams: teams},
		publisher: newPublisher(dispatcher, logger),
	}
}

// QuizInput is the editable content of a quiz.
type QuizInput struct {
	Title       string
	Description string
	Questions   []domain.QuizQuestion
}

func (in QuizInput) validate() error {
	def := quiz.Definition{Title: in.Title, Description: in.Description, Questions: in.Questions}
	if err := def.Validate(); err != nil {
		var verrs quiz.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]any, len(verrs))
			for field, msg := range verrs.Details() {
				details[field] = msg
			}
			return apperrors.NewValidationError("invalid quiz", details)
		}
		return err
	}
	return nil
}

func (in QuizInput) apply(q *domain.CustomQuiz) {
	q.Title = strings.TrimSpace(in.Title)
	q.Description = strings.TrimSpace(in.Description)
	q.Questions = make([]domain.QuizQuestion, len(in.Questions))
	for i, question := range in.Questions {
		options := make([]string, len(question.Options))
		for j, opt := range question.Options {
			options[j] = strings.TrimSpace(opt)
		}
		q.Questions[i] = domain.QuizQuestion{
			Prompt:       strings.TrimSpace(question.Prompt),
			Options:      options,
			CorrectIndex: question.CorrectIndex,
			Explanation:  strings.TrimSpace(question.Explanation),
		}
	}
}

// Create stores a new quiz for a team the caller coaches.
func (s *QuizService) Create(ctx context.Context, principal *auth.Principal, teamID string, in QuizInput) (*domain.CustomQuiz, error) {
	if _, err := s.access.coachTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	q := &domain.CustomQuiz{TeamID: teamID, CreatedBy: principal.ID()}
	in.apply(q)
	if err := s.quizzes.Create(ctx, q); err != nil {
		return nil, err
	}
	s.publishQuiz(ctx, principal, events.EventQuizSaved, events.ActionInsert, q)
	return q, nil
}

// Update replaces a quiz's content.
func (s *QuizService) Update(ctx context.Context, principal *auth.Principal, quizID string, in QuizInput) (*domain.CustomQuiz, error) {
	q, err := s.coachQuiz(ctx, principal, quizID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.apply(q)
	if err := s.quizzes.Update(ctx, q); err != nil {
		return nil, notFound(err, "quiz")
	}
	s.publishQuiz(ctx, principal, events.EventQuizSaved, events.ActionUpdate, q)
	return q, nil
}

// Delete removes a quiz and its assignments.
func (s *QuizService) Delete(ctx context.Context, principal *auth.Principal, quizID string) error {
	q, err := s.coachQuiz(ctx, principal, quizID)
	if err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, q.ID); err != nil {
		return notFound(err, "quiz")
	}
	s.publishQuiz(ctx, principal, events.EventQuizDeleted, events.ActionDelete, q)
	return nil
}

// Get returns a quiz of a team the caller belongs to. Callers decide whether
// answers may be shown.
func (s *QuizService) Get(ctx context.Context, principal *auth.Principal, quizID string) (*domain.CustomQuiz, error) {
	q, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, notFound(err, "quiz")
	}
	if _, err := s.access.memberTeam(ctx, principal, q.TeamID); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByTeam lists quizzes of a team the caller belongs to.
func (s *QuizService) ListByTeam(ctx context.Context, principal *auth.Principal, teamID string) ([]domain.CustomQuiz, error) {
	if _, err := s.access.memberTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	return s.quizzes.ListByTeam(ctx, teamID)
}

// RevealsAnswers reports whether principal coaches teamID and may therefore
// see correct answers and explanations.
func (s *QuizService) RevealsAnswers(ctx context.Context, principal *auth.Principal, teamID string) bool {
	_, err := s.access.coachTeam(ctx, principal, teamID)
	return err == nil
}

func (s *QuizService) coachQuiz(ctx context.Context, principal *auth.Principal, quizID string) (*domain.CustomQuiz, error) {
	q, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, notFound(err, "quiz")
	}
	if _, err := s.access.coachTeam(ctx, principal, q.TeamID); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) publishQuiz(ctx context.Context, principal *auth.Principal, typ events.EventType, action events.Action, q *domain.CustomQuiz) {
	s.publishEvent(ctx, events.Event{
		Type:     typ,
		TeamID:   q.TeamID,
		Table:    "custom_quizzes",
		Action:   action,
		RecordID: q.ID,
		Actor:    actorOf(principal),
	})
}
