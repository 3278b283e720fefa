package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func sequenceCodes(codes ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func newTeamService(f *fixture, codes CodeGenerator) *TeamService {
	return NewTeamService(TeamDependencies{
		TeamRepo:    f.teams,
		ProfileRepo: f.profiles,
		Dispatcher:  f.dispatcher,
		Codes:       codes,
	})
}

func TestRandomTeamCode(t *testing.T) {
	t.Parallel()
	for i := 0; i < 50; i++ {
		code, err := RandomTeamCode()
		require.NoError(t, err)
		require.Len(t, code, TeamCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(TeamCodeAlphabet, r), "unexpected symbol %q", r)
		}
	}
}

func TestTeamCreate_Success(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, sequenceCodes("XYZ789"))

	team, err := svc.Create(context.Background(), f.coach, TeamInput{Name: "  Infantil A ", Category: "infantil"})
	require.NoError(t, err)
	assert.Equal(t, "Infantil A", team.Name)
	assert.Equal(t, "XYZ789", team.Code)
	assert.Equal(t, f.coach.ID(), team.CoachID)
	assert.Equal(t, events.EventTeamUpdated, f.dispatcher.last().Type)
	assert.Equal(t, events.ActionInsert, f.dispatcher.last().Action)
}

func TestTeamCreate_RetriesOnCodeCollision(t *testing.T) {
	t.Parallel()
	f := newFixture()
	// ABC234 belongs to the fixture team.
	svc := newTeamService(f, sequenceCodes("ABC234", "ABC234", "QWE456"))

	team, err := svc.Create(context.Background(), f.coach, TeamInput{Name: "Cadete"})
	require.NoError(t, err)
	assert.Equal(t, "QWE456", team.Code)
}

func TestTeamCreate_GivesUpAfterAttempts(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, sequenceCodes("ABC234"))

	_, err := svc.Create(context.Background(), f.coach, TeamInput{Name: "Cadete"})
	assert.Equal(t, "CONFLICT", errorCode(t, err))
}

func TestTeamCreate_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, nil)

	_, err := svc.Create(context.Background(), f.coach, TeamInput{Name: "   "})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = svc.Create(context.Background(), f.player, TeamInput{Name: "Mine"})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestTeamUpdate_OnlyOwner(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, nil)

	_, err := svc.Update(context.Background(), f.outsider(), f.team.ID, TeamInput{Name: "Hijacked"})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	team, err := svc.Update(context.Background(), f.coach, f.team.ID, TeamInput{Category: "infantil"})
	require.NoError(t, err)
	assert.Equal(t, "U12", team.Name)
	assert.Equal(t, "infantil", team.Category)
}

func TestTeamRegenerateCode(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, sequenceCodes("NEW234"))

	team, err := svc.RegenerateCode(context.Background(), f.coach, f.team.ID)
	require.NoError(t, err)
	assert.Equal(t, "NEW234", team.Code)

	_, err = f.teams.GetByCode(context.Background(), "ABC234")
	assert.Error(t, err)
}

func TestJoinByCode(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, nil)
	newcomer := f.outsider()
	newcomer.Role = domain.RolePlayer

	team, err := svc.JoinByCode(context.Background(), newcomer, " abc234 ")
	require.NoError(t, err)
	assert.Equal(t, f.team.ID, team.ID)
	assert.True(t, newcomer.Profile.BelongsTo(f.team.ID))

	stored, err := f.profiles.GetByID(context.Background(), newcomer.ID())
	require.NoError(t, err)
	assert.True(t, stored.BelongsTo(f.team.ID))
	assert.Equal(t, events.EventRosterChanged, f.dispatcher.last().Type)

	// Joining again is a no-op.
	published := len(f.dispatcher.types())
	_, err = svc.JoinByCode(context.Background(), newcomer, "ABC234")
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.types(), published)
}

func TestJoinByCode_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, sequenceCodes("OTH567"))

	_, err := svc.JoinByCode(context.Background(), f.coach, "ABC234")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	_, err = svc.JoinByCode(context.Background(), f.player, "ABC")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = svc.JoinByCode(context.Background(), f.player, "ZZZ999")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	other, err := svc.Create(context.Background(), f.coach, TeamInput{Name: "Other"})
	require.NoError(t, err)
	_, err = svc.JoinByCode(context.Background(), f.player, other.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, err))
}

func TestLeaveAndRemovePlayer(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, nil)
	second := f.addPlayer("Lucia")

	require.NoError(t, svc.Leave(context.Background(), f.player))
	assert.Nil(t, f.player.Profile.TeamID)

	err := svc.Leave(context.Background(), f.player)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	err = svc.RemovePlayer(context.Background(), f.coach, f.team.ID, f.player.ID())
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	require.NoError(t, svc.RemovePlayer(context.Background(), f.coach, f.team.ID, second.ID()))
	roster, err := svc.Roster(context.Background(), f.coach, f.team.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
	assert.Equal(t, events.ActionDelete, f.dispatcher.last().Action)
}

func TestRoster_MembersOnly(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, nil)
	f.addPlayer("Lucia")

	roster, err := svc.Roster(context.Background(), f.player, f.team.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Lucia", roster[0].FullName)

	_, err = svc.Roster(context.Background(), f.outsider(), f.team.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestListMine(t *testing.T) {
	t.Parallel()
	f := newFixture()
	svc := newTeamService(f, nil)

	teams, err := svc.ListMine(context.Background(), f.coach)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	teams, err = svc.ListMine(context.Background(), f.player)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, f.team.ID, teams[0].ID)

	loner := f.outsider()
	loner.Role = domain.RolePlayer
	teams, err = svc.ListMine(context.Background(), loner)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestTeamEventFailuresAreLogged(t *testing.T) {
	t.Parallel()
	f := newFixture()
	core, logs := observer.New(zap.WarnLevel)
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(func(context.Context, events.Event) error {
		return errors.New("redis down")
	})
	svc := NewTeamService(TeamDependencies{
		TeamRepo:    f.teams,
		ProfileRepo: f.profiles,
		Dispatcher:  dispatcher,
		Logger:      zap.New(core),
		Codes:       sequenceCodes("LOG234"),
	})

	_, err := svc.Create(context.Background(), f.coach, TeamInput{Name: "Benjamin"})
	require.NoError(t, err, "delivery failures do not fail the write")

	entries := logs.FilterMessage("event delivery failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(events.EventTeamUpdated), entries[0].ContextMap()["event_type"])
}
