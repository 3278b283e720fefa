package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/quiz"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// TheoryService assigns quizzes to players and runs their attempts.
type TheoryService struct {
	assignments repository.TheoryAssignmentRepository
	quizzes     repository.QuizRepository
	profiles    repository.ProfileRepository
	attempts    quiz.Store
	access      teamAccess
	publisher
}

// TheoryDependencies bundles collaborators for the theory service.
type TheoryDependencies struct {
	AssignmentRepo repository.TheoryAssignmentRepository
	QuizRepo       repository.QuizRepository
	ProfileRepo    repository.ProfileRepository
	TeamRepo       repository.TeamRepository
	Attempts       quiz.Store
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewTheoryService constructs the service.
func NewTheoryService(deps TheoryDependencies) *TheoryService {
	return &TheoryService{
		assignments: deps.AssignmentRepo,
		quizzes:     deps.QuizRepo,
		profiles:    deps.ProfileRepo,
		attempts:    deps.Attempts,
		access:      teamAccess{teams: deps.TeamRepo},
		publisher:   newPublisher(deps.Dispatcher, deps.Logger),
	}
}

// AttemptStep is the outcome of an attempt transition.
type AttemptStep struct {
	Attempt    *quiz.Attempt
	Feedback   *quiz.Feedback
	Result     *quiz.Result
	Assignment *domain.TheoryAssignment
}

// Assign links a quiz to players of its team. Re-assigning keeps earlier
// results and refreshes the due date. An empty list assigns the whole roster.
func (s *TheoryService) Assign(ctx context.Context, principal *auth.Principal, quizID string, playerIDs []string, dueDate *time.Time) ([]domain.TheoryAssignment, error) {
	q, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, notFound(err, "quiz")
	}
	if _, err := s.access.coachTeam(ctx, principal, q.TeamID); err != nil {
		return nil, err
	}
	if dueDate != nil && !dueDate.After(s.now()) {
		return nil, apperrors.NewValidationError("due_date must be in the future", map[string]any{"field": "due_date"})
	}

	roster, err := rosterSet(ctx, s.profiles, q.TeamID)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(playerIDs)
	if len(ids) == 0 {
		for id := range roster {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("team has no players", map[string]any{"team_id": q.TeamID})
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := roster[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewValidationError("players are not on the roster", map[string]any{"player_ids": unknown})
	}

	assigned := make([]domain.TheoryAssignment, 0, len(ids))
	for _, playerID := range ids {
		a := &domain.TheoryAssignment{
			QuizID:     q.ID,
			PlayerID:   playerID,
			TeamID:     q.TeamID,
			AssignedBy: principal.ID(),
			DueDate:    dueDate,
		}
		if err := s.assignments.Assign(ctx, a); err != nil {
			return nil, err
		}
		assigned = append(assigned, *a)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTheoryAssigned,
		TeamID:   q.TeamID,
		Table:    "theory_assignments",
		Action:   events.ActionInsert,
		RecordID: q.ID,
		Actor:    actorOf(principal),
		Payload: events.TheoryAssignedPayload{
			QuizID:    q.ID,
			QuizTitle: q.Title,
			DueDate:   dueDate,
			PlayerIDs: ids,
		},
	})
	return assigned, nil
}

// Unassign removes an assignment from a team the caller coaches.
func (s *TheoryService) Unassign(ctx context.Context, principal *auth.Principal, assignmentID string) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return notFound(err, "assignment")
	}
	if _, err := s.access.coachTeam(ctx, principal, a.TeamID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, a.ID); err != nil {
		return notFound(err, "assignment")
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTheoryUnassigned,
		TeamID:   a.TeamID,
		Table:    "theory_assignments",
		Action:   events.ActionDelete,
		RecordID: a.ID,
		Actor:    actorOf(principal),
	})
	return nil
}

// ListMine lists the calling player's assignments.
func (s *TheoryService) ListMine(ctx context.Context, principal *auth.Principal) ([]repository.AssignmentWithQuiz, error) {
	return s.assignments.ListByPlayer(ctx, principal.ID())
}

// ListTeam lists assignments of a team the caller coaches, optionally for one quiz.
func (s *TheoryService) ListTeam(ctx context.Context, principal *auth.Principal, teamID string, quizID *string) ([]repository.AssignmentWithQuiz, error) {
	if _, err := s.access.coachTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	return s.assignments.ListByTeam(ctx, teamID, quizID)
}

// StartAttempt opens a new attempt on an assignment of the caller.
func (s *TheoryService) StartAttempt(ctx context.Context, principal *auth.Principal, assignmentID string) (*quiz.Attempt, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, notFound(err, "assignment")
	}
	if a.PlayerID != principal.ID() {
		return nil, apperrors.NewForbidden("assignment belongs to another player")
	}
	q, err := s.quizzes.GetByID(ctx, a.QuizID)
	if err != nil {
		return nil, notFound(err, "quiz")
	}
	attempt, err := quiz.NewAttempt(uuid.NewString(), a.ID, principal.ID(), q, s.now())
	if err != nil {
		return nil, quizError(err)
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// GetAttempt returns an attempt owned by the caller.
func (s *TheoryService) GetAttempt(ctx context.Context, principal *auth.Principal, attemptID string) (*quiz.Attempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, quizError(err)
	}
	if attempt.PlayerID != principal.ID() {
		return nil, apperrors.NewNotFound("attempt", nil)
	}
	return attempt, nil
}

// Answer submits an option for the current question and reveals the explanation.
func (s *TheoryService) Answer(ctx context.Context, principal *auth.Principal, attemptID string, option int) (*AttemptStep, error) {
	attempt, err := s.GetAttempt(ctx, principal, attemptID)
	if err != nil {
		return nil, err
	}
	feedback, err := attempt.Answer(option)
	if err != nil {
		return nil, quizError(err)
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, err
	}
	return &AttemptStep{Attempt: attempt, Feedback: &feedback}, nil
}

// Next moves to the following question. Leaving the last question finishes
// the attempt and records the result on the assignment.
func (s *TheoryService) Next(ctx context.Context, principal *auth.Principal, attemptID string) (*AttemptStep, error) {
	attempt, err := s.GetAttempt(ctx, principal, attemptID)
	if err != nil {
		return nil, err
	}
	if err := attempt.Next(s.now()); err != nil {
		return nil, quizError(err)
	}
	step := &AttemptStep{Attempt: attempt}

	if attempt.Phase == quiz.PhaseFinished {
		result, _ := attempt.Result()
		assignment, err := s.assignments.RecordResult(ctx, attempt.AssignmentID, result.Score, result.Total, *attempt.FinishedAt)
		if err != nil {
			return nil, notFound(err, "assignment")
		}
		step.Result = &result
		step.Assignment = assignment
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTheoryCompleted,
			TeamID:   assignment.TeamID,
			Table:    "theory_assignments",
			Action:   events.ActionUpdate,
			RecordID: assignment.ID,
			Actor:    actorOf(principal),
			Payload: events.TheoryCompletedPayload{
				QuizID:   assignment.QuizID,
				PlayerID: assignment.PlayerID,
				Score:    result.Score,
				Total:    result.Total,
			},
		})
		// The result now lives on the assignment; the session is done.
		if err := s.attempts.Delete(ctx, attempt.ID); err != nil {
			s.logger.Warn("finished attempt not removed", zap.String("attempt_id", attempt.ID), zap.Error(err))
		}
		return step, nil
	}

	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, err
	}
	return step, nil
}

// quizError maps attempt errors onto API errors.
func quizError(err error) error {
	switch {
	case errors.Is(err, quiz.ErrAttemptNotFound):
		return apperrors.NewNotFound("attempt", nil)
	case errors.Is(err, quiz.ErrInvalidOption):
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "option"})
	case errors.Is(err, quiz.ErrNoQuestions):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrNotAnswered),
		errors.Is(err, quiz.ErrFinished),
		errors.Is(err, quiz.ErrNotFinished):
		return apperrors.NewConflict(err.Error(), nil)
	}
	return err
}
