package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

const defaultDispatchBatch = 50

// ScheduledCallupService manages deferred callups and sends them when due.
type ScheduledCallupService struct {
	scheduled  repository.ScheduledCallupRepository
	activities repository.ActivityRepository
	profiles   repository.ProfileRepository
	callups    *CallupService
	access     teamAccess
	logger     *zap.Logger
	batchSize  int
	publisher
}

// ScheduledCallupDependencies bundles collaborators for the service.
type ScheduledCallupDependencies struct {
	ScheduledRepo repository.ScheduledCallupRepository
	ActivityRepo  repository.ActivityRepository
	ProfileRepo   repository.ProfileRepository
	TeamRepo      repository.TeamRepository
	Callups       *CallupService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	BatchSize     int
}

// NewScheduledCallupService constructs the service.
func NewScheduledCallupService(deps ScheduledCallupDependencies) *ScheduledCallupService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := deps.BatchSize
	if batch <= 0 {
		batch = defaultDispatchBatch
	}
	return &ScheduledCallupService{
		scheduled:  deps.ScheduledRepo,
		activities: deps.ActivityRepo,
		profiles:   deps.ProfileRepo,
		callups:    deps.Callups,
		access:     teamAccess{teams: deps.TeamRepo},
		logger:     logger,
		batchSize:  batch,
		publisher:  newPublisher(deps.Dispatcher, logger),
	}
}

// DispatchReport summarizes one worker pass.
type DispatchReport struct {
	Claimed int
	Sent    int
	Failed  int
}

// Schedule stores a callup to be sent at sendAt. An empty player list means
// the whole roster at send time.
func (s *ScheduledCallupService) Schedule(ctx context.Context, principal *auth.Principal, activityID string, sendAt time.Time, playerIDs []string) (*domain.ScheduledCallup, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if _, err := s.access.coachTeam(ctx, principal, activity.TeamID); err != nil {
		return nil, err
	}
	if !sendAt.After(s.now()) {
		return nil, apperrors.NewValidationError("send_at must be in the future", map[string]any{"field": "send_at"})
	}
	if !sendAt.Before(activity.StartsAt) {
		return nil, apperrors.NewValidationError("send_at must be before the activity starts", map[string]any{"field": "send_at"})
	}

	ids := uniqueIDs(playerIDs)
	if len(ids) > 0 {
		roster, err := rosterSet(ctx, s.profiles, activity.TeamID)
		if err != nil {
			return nil, err
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
	}

	sc := &domain.ScheduledCallup{
		ActivityID: activity.ID,
		TeamID:     activity.TeamID,
		PlayerIDs:  ids,
		SendAt:     sendAt.UTC(),
		Status:     domain.ScheduledCallupStatusScheduled,
		CreatedBy:  principal.ID(),
	}
	if err := s.scheduled.Create(ctx, sc); err != nil {
		return nil, err
	}
	s.publishScheduled(ctx, actorOf(principal), events.EventScheduledCallupCreated, events.ActionInsert, sc)
	return sc, nil
}

// Cancel stops a callup that has not been sent yet.
func (s *ScheduledCallupService) Cancel(ctx context.Context, principal *auth.Principal, id string) (*domain.ScheduledCallup, error) {
	sc, err := s.scheduled.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "scheduled callup")
	}
	if _, err := s.access.coachTeam(ctx, principal, sc.TeamID); err != nil {
		return nil, err
	}
	if err := s.scheduled.Cancel(ctx, sc.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("scheduled callup can no longer be cancelled", map[string]any{"status": sc.Status})
		}
		return nil, err
	}
	sc.Status = domain.ScheduledCallupStatusCancelled
	s.publishScheduled(ctx, actorOf(principal), events.EventScheduledCallupCanceled, events.ActionUpdate, sc)
	return sc, nil
}

// ListByTeam lists scheduled callups of a team the caller coaches.
func (s *ScheduledCallupService) ListByTeam(ctx context.Context, principal *auth.Principal, teamID string) ([]domain.ScheduledCallup, error) {
	if _, err := s.access.coachTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	return s.scheduled.ListByTeam(ctx, teamID)
}

// DispatchDue claims due callups and sends them. A failing row is marked
// failed with the error text; the pass continues with the next row.
func (s *ScheduledCallupService) DispatchDue(ctx context.Context) (DispatchReport, error) {
	var report DispatchReport
	due, err := s.scheduled.ClaimDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return report, err
	}
	report.Claimed = len(due)

	for i := range due {
		sc := &due[i]
		if err := s.dispatchOne(ctx, sc); err != nil {
			report.Failed++
			s.logger.Warn("scheduled callup failed",
				zap.String("scheduled_callup_id", sc.ID),
				zap.String("activity_id", sc.ActivityID),
				zap.Error(err))
			if markErr := s.scheduled.MarkFailed(ctx, sc.ID, err.Error()); markErr != nil {
				return report, markErr
			}
			continue
		}
		report.Sent++
	}
	return report, nil
}

func (s *ScheduledCallupService) dispatchOne(ctx context.Context, sc *domain.ScheduledCallup) error {
	activity, err := s.activities.GetByID(ctx, sc.ActivityID)
	if err != nil {
		return notFound(err, "activity")
	}
	actor := events.Actor{ProfileID: sc.CreatedBy, Role: domain.RoleCoach}
	if _, err := s.callups.Dispatch(ctx, activity, sc.PlayerIDs, actor); err != nil {
		return err
	}

	sentAt := s.now()
	if err := s.scheduled.MarkSent(ctx, sc.ID, sentAt); err != nil {
		return err
	}
	sc.Status = domain.ScheduledCallupStatusSent
	sc.SentAt = &sentAt
	s.publishScheduled(ctx, actor, events.EventScheduledCallupSent, events.ActionUpdate, sc)
	return nil
}

func (s *ScheduledCallupService) publishScheduled(ctx context.Context, actor events.Actor, typ events.EventType, action events.Action, sc *domain.ScheduledCallup) {
	s.publishEvent(ctx, events.Event{
		Type:     typ,
		TeamID:   sc.TeamID,
		Table:    "scheduled_callups",
		Action:   action,
		RecordID: sc.ID,
		Actor:    actor,
	})
}
