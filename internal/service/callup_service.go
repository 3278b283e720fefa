package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

const maxCallupNoteLength = 500

// CallupService sends callups and records player responses.
type CallupService struct {
	activities repository.ActivityRepository
	callups    repository.CallupRepository
	profiles   repository.ProfileRepository
	access     teamAccess
	publisher
}

// CallupDependencies bundles repositories for callup service.
type CallupDependencies struct {
	ActivityRepo repository.ActivityRepository
	CallupRepo   repository.CallupRepository
	ProfileRepo  repository.ProfileRepository
	TeamRepo     repository.TeamRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewCallupService constructs the service.
func NewCallupService(deps CallupDependencies) *CallupService {
	return &CallupService{
		activities: deps.ActivityRepo,
		callups:    deps.CallupRepo,
		profiles:   deps.ProfileRepo,
		access:     teamAccess{teams: deps.TeamRepo},
		publisher:  newPublisher(deps.Dispatcher, deps.Logger),
	}
}

// SendResult reports which players got a new pending callup. Players that
// were already called up keep their existing response.
type SendResult struct {
	ActivityID string
	Requested  []string
	Added      []string
}

// CallupOverview is the coach's view of an activity's callup.
type CallupOverview struct {
	Activity  *domain.Activity
	Responses []domain.CallupResponse
	Summary   domain.CallupSummary
}

// Send calls up playerIDs for an activity the caller coaches.
func (s *CallupService) Send(ctx context.Context, principal *auth.Principal, activityID string, playerIDs []string) (*SendResult, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if _, err := s.access.coachTeam(ctx, principal, activity.TeamID); err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, activity, playerIDs, actorOf(principal))
}

// Dispatch creates pending responses for playerIDs. An empty list calls up
// the whole roster.
func (s *CallupService) Dispatch(ctx context.Context, activity *domain.Activity, playerIDs []string, actor events.Actor) (*SendResult, error) {
	if !activity.EndsAt.After(s.now()) {
		return nil, apperrors.NewValidationError("activity already finished", map[string]any{"activity_id": activity.ID})
	}
	roster, err := rosterSet(ctx, s.profiles, activity.TeamID)
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
		return nil, apperrors.NewValidationError("team has no players", map[string]any{"team_id": activity.TeamID})
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

	added, err := s.callups.EnsurePending(ctx, activity.ID, ids)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventCallupSent,
			TeamID:   activity.TeamID,
			Table:    "callup_responses",
			Action:   events.ActionInsert,
			RecordID: activity.ID,
			Actor:    actor,
			Payload: events.CallupSentPayload{
				ActivityID:    activity.ID,
				ActivityTitle: activity.Title,
				StartsAt:      activity.StartsAt,
				Location:      activity.Location,
				PlayerIDs:     added,
			},
		})
	}
	return &SendResult{ActivityID: activity.ID, Requested: ids, Added: added}, nil
}

// Respond records the calling player's answer. Any roster member may answer,
// whether or not they were called up.
func (s *CallupService) Respond(ctx context.Context, principal *auth.Principal, activityID string, status domain.CallupStatus, note *string) (*domain.CallupResponse, error) {
	if principal.IsCoach() {
		return nil, apperrors.NewForbidden("player role required")
	}
	if status != domain.CallupStatusConfirmed && status != domain.CallupStatusDeclined {
		return nil, apperrors.NewValidationError("status must be confirmed or declined", map[string]any{"status": status})
	}
	note = trimPtr(note)
	if note != nil && len(*note) > maxCallupNoteLength {
		return nil, apperrors.NewValidationError("note too long", map[string]any{"max": maxCallupNoteLength})
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if !principal.Profile.BelongsTo(activity.TeamID) {
		return nil, apperrors.NewForbidden("not a member of this team")
	}
	now := s.now()
	if !activity.EndsAt.After(now) {
		return nil, apperrors.NewValidationError("activity already finished", map[string]any{"activity_id": activity.ID})
	}

	response := &domain.CallupResponse{
		ActivityID:  activity.ID,
		PlayerID:    principal.ID(),
		Status:      status,
		Note:        note,
		RespondedAt: &now,
	}
	if err := s.callups.Upsert(ctx, response); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventCallupResponded,
		TeamID:   activity.TeamID,
		Table:    "callup_responses",
		Action:   events.ActionUpdate,
		RecordID: response.ID,
		Actor:    actorOf(principal),
		Payload: events.CallupRespondedPayload{
			ActivityID: activity.ID,
			PlayerID:   principal.ID(),
			Status:     status,
		},
	})
	return response, nil
}

// Overview returns all responses and counts for an activity the caller coaches.
func (s *CallupService) Overview(ctx context.Context, principal *auth.Principal, activityID string) (*CallupOverview, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if _, err := s.access.coachTeam(ctx, principal, activity.TeamID); err != nil {
		return nil, err
	}
	responses, err := s.callups.ListByActivity(ctx, activity.ID)
	if err != nil {
		return nil, err
	}
	return &CallupOverview{Activity: activity, Responses: responses, Summary: domain.Summarize(responses)}, nil
}

// MyResponse returns the caller's response for an activity.
func (s *CallupService) MyResponse(ctx context.Context, principal *auth.Principal, activityID string) (*domain.CallupResponse, error) {
	response, err := s.callups.Get(ctx, strings.TrimSpace(activityID), principal.ID())
	if err != nil {
		return nil, notFound(err, "callup")
	}
	return response, nil
}

// Pending lists the caller's unanswered callups for upcoming activities.
func (s *CallupService) Pending(ctx context.Context, principal *auth.Principal) ([]repository.PendingCallup, error) {
	if principal.IsCoach() {
		return nil, apperrors.NewForbidden("player role required")
	}
	return s.callups.ListPendingByPlayer(ctx, principal.ID())
}
