package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/calendar"
	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// maxActivityRange bounds list queries.
const maxActivityRange = 92 * 24 * time.Hour

// ActivityService manages the team calendar.
type ActivityService struct {
	activities repository.ActivityRepository
	access     teamAccess
	calendar   calendar.Options
	publisher
}

// ActivityDependencies bundles repositories for activity service.
type ActivityDependencies struct {
	ActivityRepo repository.ActivityRepository
	TeamRepo     repository.TeamRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(cfg config.CalendarConfig, deps ActivityDependencies) *ActivityService {
	return &ActivityService{
		activities: deps.ActivityRepo,
		access:     teamAccess{teams: deps.TeamRepo},
		calendar: calendar.Options{
			DayStartHour: cfg.DayStartHour,
			DayEndHour:   cfg.DayEndHour,
			Location:     cfg.Location(),
		},
		publisher: newPublisher(deps.Dispatcher, deps.Logger),
	}
}

// ActivityInput describes an activity to create or replace.
type ActivityInput struct {
	Type        domain.ActivityType
	Title       string
	Description string
	Location    string
	Opponent    *string
	StartsAt    time.Time
	EndsAt      time.Time
}

func (in ActivityInput) validate() error {
	details := map[string]any{}
	if !in.Type.Valid() {
		details["type"] = "invalid"
	}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if in.StartsAt.IsZero() {
		details["starts_at"] = "required"
	}
	if !in.EndsAt.After(in.StartsAt) {
		details["ends_at"] = "must be after starts_at"
	}
	if in.Opponent != nil && strings.TrimSpace(*in.Opponent) != "" && in.Type != domain.ActivityTypeMatch {
		details["opponent"] = "only allowed for matches"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid activity", details)
	}
	return nil
}

func (in ActivityInput) apply(a *domain.Activity) {
	a.Type = in.Type
	a.Title = strings.TrimSpace(in.Title)
	a.Description = strings.TrimSpace(in.Description)
	a.Location = strings.TrimSpace(in.Location)
	a.Opponent = nil
	if in.Type == domain.ActivityTypeMatch {
		a.Opponent = trimPtr(in.Opponent)
	}
	a.StartsAt = in.StartsAt.UTC()
	a.EndsAt = in.EndsAt.UTC()
}

// Create adds an activity to a team the caller coaches.
func (s *ActivityService) Create(ctx context.Context, principal *auth.Principal, teamID string, in ActivityInput) (*domain.Activity, error) {
	if _, err := s.access.coachTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	activity := &domain.Activity{TeamID: teamID, CreatedBy: principal.ID()}
	in.apply(activity)
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	s.publishActivity(ctx, principal, events.EventActivityCreated, events.ActionInsert, activity)
	return activity, nil
}

// Update replaces an activity's details.
func (s *ActivityService) Update(ctx context.Context, principal *auth.Principal, activityID string, in ActivityInput) (*domain.Activity, error) {
	activity, err := s.coachActivity(ctx, principal, activityID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.apply(activity)
	if err := s.activities.Update(ctx, activity); err != nil {
		return nil, notFound(err, "activity")
	}
	s.publishActivity(ctx, principal, events.EventActivityUpdated, events.ActionUpdate, activity)
	return activity, nil
}

// Delete removes an activity with its callups.
func (s *ActivityService) Delete(ctx context.Context, principal *auth.Principal, activityID string) error {
	activity, err := s.coachActivity(ctx, principal, activityID)
	if err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, activity.ID); err != nil {
		return notFound(err, "activity")
	}
	s.publishActivity(ctx, principal, events.EventActivityDeleted, events.ActionDelete, activity)
	return nil
}

// Get returns an activity of a team the caller belongs to.
func (s *ActivityService) Get(ctx context.Context, principal *auth.Principal, activityID string) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if _, err := s.access.memberTeam(ctx, principal, activity.TeamID); err != nil {
		return nil, err
	}
	return activity, nil
}

// ListRange lists activities overlapping [from, to).
func (s *ActivityService) ListRange(ctx context.Context, principal *auth.Principal, teamID string, from, to time.Time) ([]domain.Activity, error) {
	if _, err := s.access.memberTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, apperrors.NewValidationError("to must be after from", map[string]any{"from": from, "to": to})
	}
	if to.Sub(from) > maxActivityRange {
		return nil, apperrors.NewValidationError("range too large", map[string]any{"max_days": int(maxActivityRange.Hours() / 24)})
	}
	return s.activities.ListByTeamRange(ctx, teamID, from, to)
}

// Week lays out the week containing weekOf on the calendar grid.
func (s *ActivityService) Week(ctx context.Context, principal *auth.Principal, teamID string, weekOf time.Time) (calendar.Week, []domain.Activity, error) {
	if _, err := s.access.memberTeam(ctx, principal, teamID); err != nil {
		return calendar.Week{}, nil, err
	}
	from, to := calendar.Range(weekOf, s.calendar.Location)
	activities, err := s.activities.ListByTeamRange(ctx, teamID, from, to)
	if err != nil {
		return calendar.Week{}, nil, err
	}
	items := make([]calendar.Item, 0, len(activities))
	for _, a := range activities {
		items = append(items, calendar.Item{
			ID:    a.ID,
			Title: a.Title,
			Kind:  string(a.Type),
			Start: a.StartsAt,
			End:   a.EndsAt,
		})
	}
	return calendar.Build(weekOf, items, s.calendar), activities, nil
}

// CalendarLocation is the zone week boundaries are computed in.
func (s *ActivityService) CalendarLocation() *time.Location {
	return s.calendar.Location
}

func (s *ActivityService) coachActivity(ctx context.Context, principal *auth.Principal, activityID string) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if _, err := s.access.coachTeam(ctx, principal, activity.TeamID); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ActivityService) publishActivity(ctx context.Context, principal *auth.Principal, typ events.EventType, action events.Action, activity *domain.Activity) {
	s.publishEvent(ctx, events.Event{
		Type:     typ,
		TeamID:   activity.TeamID,
		Table:    "activities",
		Action:   action,
		RecordID: activity.ID,
		Actor:    actorOf(principal),
	})
}
