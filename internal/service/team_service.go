package service

import (
	"context"
	"crypto/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

const (
	// TeamCodeAlphabet has 32 symbols and no I, O, 0 or 1.
	TeamCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	TeamCodeLength   = 6
	teamCodeAttempts = 5
)

// CodeGenerator returns a fresh team code.
type CodeGenerator func() (string, error)

// RandomTeamCode draws TeamCodeLength characters from TeamCodeAlphabet.
func RandomTeamCode() (string, error) {
	buf := make([]byte, TeamCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = TeamCodeAlphabet[int(b)%len(TeamCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeTeamCode uppercases and trims user input.
func NormalizeTeamCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// TeamService manages teams and rosters.
type TeamService struct {
	teams    repository.TeamRepository
	profiles repository.ProfileRepository
	codes    CodeGenerator
	access   teamAccess
	publisher
}

// TeamDependencies bundles repositories for team service.
type TeamDependencies struct {
	TeamRepo    repository.TeamRepository
	ProfileRepo repository.ProfileRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Codes       CodeGenerator
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	codes := deps.Codes
	if codes == nil {
		codes = RandomTeamCode
	}
	return &TeamService{
		teams:     deps.TeamRepo,
		profiles:  deps.ProfileRepo,
		codes:     codes,
		access:    teamAccess{teams: deps.TeamRepo},
		publisher: newPublisher(deps.Dispatcher, deps.Logger),
	}
}

// TeamInput describes team creation or update.
type TeamInput struct {
	Name     string
	Category string
}

// Create makes a team owned by the calling coach.
func (s *TeamService) Create(ctx context.Context, principal *auth.Principal, in TeamInput) (*domain.Team, error) {
	if !principal.IsCoach() {
		return nil, apperrors.NewForbidden("coach role required")
	}
	team := &domain.Team{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		CoachID:  principal.ID(),
	}
	if team.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}

	err := s.withFreshCode(func(code string) error {
		team.Code = code
		return s.teams.Create(ctx, team)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTeamUpdated,
		TeamID:   team.ID,
		Table:    "teams",
		Action:   events.ActionInsert,
		RecordID: team.ID,
		Actor:    actorOf(principal),
	})
	return team, nil
}

// Update renames or recategorizes a team.
func (s *TeamService) Update(ctx context.Context, principal *auth.Principal, teamID string, in TeamInput) (*domain.Team, error) {
	team, err := s.access.coachTeam(ctx, principal, teamID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		team.Name = name
	}
	if category := strings.TrimSpace(in.Category); category != "" {
		team.Category = category
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, err
	}
	s.publishTeamUpdated(ctx, principal, team)
	return team, nil
}

// RegenerateCode replaces the join code; the old one stops working.
func (s *TeamService) RegenerateCode(ctx context.Context, principal *auth.Principal, teamID string) (*domain.Team, error) {
	team, err := s.access.coachTeam(ctx, principal, teamID)
	if err != nil {
		return nil, err
	}
	err = s.withFreshCode(func(code string) error {
		if err := s.teams.UpdateCode(ctx, team.ID, code); err != nil {
			return err
		}
		team.Code = code
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishTeamUpdated(ctx, principal, team)
	return team, nil
}

// withFreshCode retries fn with new codes while it fails on a unique violation.
func (s *TeamService) withFreshCode(fn func(code string) error) error {
	var lastErr error
	for attempt := 0; attempt < teamCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return err
		}
		lastErr = fn(code)
		if lastErr == nil {
			return nil
		}
		if !apperrors.IsUniqueViolation(lastErr) {
			return lastErr
		}
	}
	return apperrors.NewConflict("could not generate a unique team code", nil)
}

// ListMine returns the coach's teams, or the player's team.
func (s *TeamService) ListMine(ctx context.Context, principal *auth.Principal) ([]domain.Team, error) {
	if principal.IsCoach() {
		return s.teams.ListByCoach(ctx, principal.ID())
	}
	if principal.Profile.TeamID == nil {
		return []domain.Team{}, nil
	}
	team, err := s.teams.GetByID(ctx, *principal.Profile.TeamID)
	if err != nil {
		return nil, notFound(err, "team")
	}
	return []domain.Team{*team}, nil
}

// Get returns a team visible to the caller.
func (s *TeamService) Get(ctx context.Context, principal *auth.Principal, teamID string) (*domain.Team, error) {
	return s.access.memberTeam(ctx, principal, teamID)
}

// JoinByCode attaches the calling player to the team with code.
func (s *TeamService) JoinByCode(ctx context.Context, principal *auth.Principal, code string) (*domain.Team, error) {
	if principal.IsCoach() {
		return nil, apperrors.NewForbidden("player role required")
	}
	code = NormalizeTeamCode(code)
	if len(code) != TeamCodeLength {
		return nil, apperrors.NewValidationError("invalid team code", map[string]any{"field": "code"})
	}
	team, err := s.teams.GetByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, "team")
	}
	if principal.Profile.BelongsTo(team.ID) {
		return team, nil
	}
	if principal.Profile.TeamID != nil {
		return nil, apperrors.NewConflict("already a member of another team", map[string]any{"team_id": *principal.Profile.TeamID})
	}
	if err := s.profiles.SetTeam(ctx, principal.ID(), &team.ID); err != nil {
		return nil, err
	}
	principal.Profile.TeamID = &team.ID
	s.publishRosterChanged(ctx, principal, team.ID, principal.ID(), events.ActionUpdate)
	return team, nil
}

// Leave detaches the calling player from their team.
func (s *TeamService) Leave(ctx context.Context, principal *auth.Principal) error {
	if principal.IsCoach() {
		return apperrors.NewForbidden("player role required")
	}
	if principal.Profile.TeamID == nil {
		return apperrors.NewValidationError("not a member of any team", nil)
	}
	teamID := *principal.Profile.TeamID
	if err := s.profiles.SetTeam(ctx, principal.ID(), nil); err != nil {
		return err
	}
	principal.Profile.TeamID = nil
	s.publishRosterChanged(ctx, principal, teamID, principal.ID(), events.ActionUpdate)
	return nil
}

// Roster lists players of a team the caller belongs to.
func (s *TeamService) Roster(ctx context.Context, principal *auth.Principal, teamID string) ([]domain.Profile, error) {
	if _, err := s.access.memberTeam(ctx, principal, teamID); err != nil {
		return nil, err
	}
	return s.profiles.ListByTeam(ctx, teamID)
}

// RemovePlayer clears a player's team membership.
func (s *TeamService) RemovePlayer(ctx context.Context, principal *auth.Principal, teamID, playerID string) error {
	if _, err := s.access.coachTeam(ctx, principal, teamID); err != nil {
		return err
	}
	player, err := s.profiles.GetByID(ctx, playerID)
	if err != nil {
		return notFound(err, "player")
	}
	if !player.BelongsTo(teamID) {
		return apperrors.NewNotFound("player", map[string]any{"player_id": playerID})
	}
	if err := s.profiles.SetTeam(ctx, playerID, nil); err != nil {
		return err
	}
	s.publishRosterChanged(ctx, principal, teamID, playerID, events.ActionDelete)
	return nil
}

func (s *TeamService) publishTeamUpdated(ctx context.Context, principal *auth.Principal, team *domain.Team) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTeamUpdated,
		TeamID:   team.ID,
		Table:    "teams",
		Action:   events.ActionUpdate,
		RecordID: team.ID,
		Actor:    actorOf(principal),
	})
}

func (s *TeamService) publishRosterChanged(ctx context.Context, principal *auth.Principal, teamID, profileID string, action events.Action) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventRosterChanged,
		TeamID:   teamID,
		Table:    "profiles",
		Action:   action,
		RecordID: profileID,
		Actor:    actorOf(principal),
	})
}
