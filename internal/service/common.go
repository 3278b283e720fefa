package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// publisher fills event metadata and dispatches. Delivery failures are logged
// and never fail the operation that produced the event.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func newPublisher(dispatcher events.Dispatcher, logger *zap.Logger) publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return publisher{dispatcher: dispatcher, logger: logger, now: time.Now}
}

func (p publisher) publishEvent(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("record_id", event.RecordID),
			zap.Error(err))
	}
}

func actorOf(principal *auth.Principal) events.Actor {
	if principal == nil || principal.Profile == nil {
		return events.Actor{}
	}
	return events.Actor{ProfileID: principal.ID(), Role: principal.Role}
}

// notFound turns a missing row into a NOT_FOUND error naming resource.
func notFound(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// teamAccess answers "may this caller see or manage this team".
type teamAccess struct {
	teams repository.TeamRepository
}

// coachTeam loads a team the caller manages as coach.
func (a teamAccess) coachTeam(ctx context.Context, principal *auth.Principal, teamID string) (*domain.Team, error) {
	if principal == nil || !principal.IsCoach() {
		return nil, apperrors.NewForbidden("coach role required")
	}
	team, err := a.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err, "team")
	}
	if !team.OwnedBy(principal.ID()) {
		return nil, apperrors.NewForbidden("not the coach of this team")
	}
	return team, nil
}

// memberTeam loads a team the caller coaches or plays for.
func (a teamAccess) memberTeam(ctx context.Context, principal *auth.Principal, teamID string) (*domain.Team, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	team, err := a.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err, "team")
	}
	if principal.IsCoach() && team.OwnedBy(principal.ID()) {
		return team, nil
	}
	if !principal.IsCoach() && principal.Profile.BelongsTo(team.ID) {
		return team, nil
	}
	return nil, apperrors.NewForbidden("not a member of this team")
}

// rosterSet returns the ids of the team's players.
func rosterSet(ctx context.Context, profiles repository.ProfileRepository, teamID string) (map[string]domain.Profile, error) {
	players, err := profiles.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]domain.Profile, len(players))
	for _, p := range players {
		set[p.ID] = p
	}
	return set, nil
}

// uniqueIDs trims, drops empties and de-duplicates while keeping order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
