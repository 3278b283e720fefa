package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
)

// --- Profiles ---

type memProfiles struct {
	mu   sync.Mutex
	byID map[string]*domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: map[string]*domain.Profile{}}
}

func (m *memProfiles) add(p domain.Profile) *domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := p
	m.byID[p.ID] = &cp
	out := cp
	return &out
}

func (m *memProfiles) CreateWithRole(_ context.Context, p *domain.Profile, role domain.Role) error {
	p.Roles = []domain.Role{role}
	created := m.add(*p)
	*p = *created
	return nil
}

func (m *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memProfiles) ListByTeam(_ context.Context, teamID string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Profile{}
	for _, p := range m.byID {
		if p.BelongsTo(teamID) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *memProfiles) SetTeam(_ context.Context, profileID string, teamID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[profileID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.TeamID = teamID
	return nil
}

func (m *memProfiles) AddRole(_ context.Context, profileID string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[profileID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !p.HasRole(role) {
		p.Roles = append(p.Roles, role)
	}
	return nil
}

// --- Teams ---

type memTeams struct {
	mu       sync.Mutex
	byID     map[string]*domain.Team
	createFn func(t *domain.Team) error
}

func newMemTeams() *memTeams {
	return &memTeams{byID: map[string]*domain.Team{}}
}

func (m *memTeams) codeTaken(code string) bool {
	for _, t := range m.byID {
		if t.Code == code {
			return true
		}
	}
	return false
}

func (m *memTeams) Create(_ context.Context, t *domain.Team) error {
	if m.createFn != nil {
		if err := m.createFn(t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codeTaken(t.Code) {
		return uniqueViolation()
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTeams) Update(_ context.Context, t *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTeams) UpdateCode(_ context.Context, teamID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	if m.codeTaken(code) {
		return uniqueViolation()
	}
	t.Code = code
	return nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *memTeams) GetByCode(_ context.Context, code string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTeams) ListByCoach(_ context.Context, coachID string) ([]domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Team{}
	for _, t := range m.byID {
		if t.CoachID == coachID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// --- Activities ---

type memActivities struct {
	mu   sync.Mutex
	byID map[string]*domain.Activity
}

func newMemActivities() *memActivities {
	return &memActivities{byID: map[string]*domain.Activity{}}
}

func (m *memActivities) Create(_ context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memActivities) Update(_ context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memActivities) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memActivities) GetByID(_ context.Context, id string) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memActivities) ListByTeamRange(_ context.Context, teamID string, from, to time.Time) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Activity{}
	for _, a := range m.byID {
		if a.TeamID == teamID && a.StartsAt.Before(to) && a.EndsAt.After(from) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// --- Callups ---

type memCallups struct {
	mu   sync.Mutex
	rows map[string]*domain.CallupResponse // activity|player
	acts *memActivities
}

func newMemCallups(acts *memActivities) *memCallups {
	return &memCallups{rows: map[string]*domain.CallupResponse{}, acts: acts}
}

func callupKey(activityID, playerID string) string { return activityID + "|" + playerID }

func (m *memCallups) EnsurePending(_ context.Context, activityID string, playerIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := []string{}
	for _, id := range playerIDs {
		key := callupKey(activityID, id)
		if _, ok := m.rows[key]; ok {
			continue
		}
		m.rows[key] = &domain.CallupResponse{
			ID: uuid.NewString(), ActivityID: activityID, PlayerID: id, Status: domain.CallupStatusPending,
		}
		added = append(added, id)
	}
	return added, nil
}

func (m *memCallups) Upsert(_ context.Context, r *domain.CallupResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := callupKey(r.ActivityID, r.PlayerID)
	if existing, ok := m.rows[key]; ok {
		r.ID = existing.ID
	} else {
		r.ID = uuid.NewString()
	}
	cp := *r
	m.rows[key] = &cp
	return nil
}

func (m *memCallups) Get(_ context.Context, activityID, playerID string) (*domain.CallupResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[callupKey(activityID, playerID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *memCallups) ListByActivity(_ context.Context, activityID string) ([]domain.CallupResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.CallupResponse{}
	for _, r := range m.rows {
		if r.ActivityID == activityID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (m *memCallups) ListPendingByPlayer(ctx context.Context, playerID string) ([]repository.PendingCallup, error) {
	m.mu.Lock()
	var rows []domain.CallupResponse
	for _, r := range m.rows {
		if r.PlayerID == playerID && r.Status == domain.CallupStatusPending {
			rows = append(rows, *r)
		}
	}
	m.mu.Unlock()

	out := []repository.PendingCallup{}
	for _, r := range rows {
		a, err := m.acts.GetByID(ctx, r.ActivityID)
		if err != nil {
			continue
		}
		out = append(out, repository.PendingCallup{Response: r, Activity: *a})
	}
	return out, nil
}

// --- Scheduled callups ---

type memScheduled struct {
	mu   sync.Mutex
	byID map[string]*domain.ScheduledCallup
}

func newMemScheduled() *memScheduled {
	return &memScheduled{byID: map[string]*domain.ScheduledCallup{}}
}

func (m *memScheduled) Create(_ context.Context, sc *domain.ScheduledCallup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc.ID = uuid.NewString()
	cp := *sc
	m.byID[sc.ID] = &cp
	return nil
}

func (m *memScheduled) GetByID(_ context.Context, id string) (*domain.ScheduledCallup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *sc
	return &cp, nil
}

func (m *memScheduled) ListByTeam(_ context.Context, teamID string) ([]domain.ScheduledCallup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ScheduledCallup{}
	for _, sc := range m.byID {
		if sc.TeamID == teamID {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (m *memScheduled) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.byID[id]
	if !ok || sc.Status != domain.ScheduledCallupStatusScheduled {
		return pgx.ErrNoRows
	}
	sc.Status = domain.ScheduledCallupStatusCancelled
	return nil
}

func (m *memScheduled) ClaimDue(_ context.Context, now time.Time, limit int) ([]domain.ScheduledCallup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ScheduledCallup{}
	for _, sc := range m.byID {
		if len(out) == limit {
			break
		}
		if sc.Status == domain.ScheduledCallupStatusScheduled && !sc.SendAt.After(now) {
			sc.Status = domain.ScheduledCallupStatusSending
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (m *memScheduled) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := m.byID[id]
	sc.Status = domain.ScheduledCallupStatusSent
	sc.SentAt = &sentAt
	return nil
}

func (m *memScheduled) MarkFailed(_ context.Context, id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := m.byID[id]
	sc.Status = domain.ScheduledCallupStatusFailed
	sc.LastError = &reason
	return nil
}

// --- Quizzes ---

type memQuizzes struct {
	mu   sync.Mutex
	byID map[string]*domain.CustomQuiz
}

func newMemQuizzes() *memQuizzes {
	return &memQuizzes{byID: map[string]*domain.CustomQuiz{}}
}

func (m *memQuizzes) Create(_ context.Context, q *domain.CustomQuiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.NewString()
	cp := *q
	m.byID[q.ID] = &cp
	return nil
}

func (m *memQuizzes) Update(_ context.Context, q *domain.CustomQuiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *q
	m.byID[q.ID] = &cp
	return nil
}

func (m *memQuizzes) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memQuizzes) GetByID(_ context.Context, id string) (*domain.CustomQuiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (m *memQuizzes) ListByTeam(_ context.Context, teamID string) ([]domain.CustomQuiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.CustomQuiz{}
	for _, q := range m.byID {
		if q.TeamID == teamID {
			out = append(out, *q)
		}
	}
	return out, nil
}

// --- Theory assignments ---

type memAssignments struct {
	mu      sync.Mutex
	byID    map[string]*domain.TheoryAssignment
	quizzes *memQuizzes
}

func newMemAssignments(quizzes *memQuizzes) *memAssignments {
	return &memAssignments{byID: map[string]*domain.TheoryAssignment{}, quizzes: quizzes}
}

func (m *memAssignments) Assign(_ context.Context, a *domain.TheoryAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.QuizID == a.QuizID && existing.PlayerID == a.PlayerID {
			if a.DueDate != nil {
				existing.DueDate = a.DueDate
			}
			existing.AssignedBy = a.AssignedBy
			*a = *existing
			return nil
		}
	}
	a.ID = uuid.NewString()
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAssignments) GetByID(_ context.Context, id string) (*domain.TheoryAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memAssignments) list(ctx context.Context, match func(a *domain.TheoryAssignment) bool) ([]repository.AssignmentWithQuiz, error) {
	m.mu.Lock()
	var rows []domain.TheoryAssignment
	for _, a := range m.byID {
		if match(a) {
			rows = append(rows, *a)
		}
	}
	m.mu.Unlock()

	out := []repository.AssignmentWithQuiz{}
	for _, a := range rows {
		q, err := m.quizzes.GetByID(ctx, a.QuizID)
		if err != nil {
			return nil, err
		}
		out = append(out, repository.AssignmentWithQuiz{Assignment: a, QuizTitle: q.Title, Questions: len(q.Questions)})
	}
	return out, nil
}

func (m *memAssignments) ListByPlayer(ctx context.Context, playerID string) ([]repository.AssignmentWithQuiz, error) {
	return m.list(ctx, func(a *domain.TheoryAssignment) bool { return a.PlayerID == playerID })
}

func (m *memAssignments) ListByTeam(ctx context.Context, teamID string, quizID *string) ([]repository.AssignmentWithQuiz, error) {
	return m.list(ctx, func(a *domain.TheoryAssignment) bool {
		return a.TeamID == teamID && (quizID == nil || a.QuizID == *quizID)
	})
}

func (m *memAssignments) RecordResult(_ context.Context, id string, score, total int, completedAt time.Time) (*domain.TheoryAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if a.Score == nil || score > *a.Score {
		a.Score = &score
	}
	a.Total = &total
	a.Attempts++
	a.CompletedAt = &completedAt
	cp := *a
	return &cp, nil
}

func (m *memAssignments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

// --- Events ---

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
	inner  events.Dispatcher
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{inner: events.NewInMemoryDispatcher()}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.events = append(d.events, event)
	d.mu.Unlock()
	return d.inner.Publish(ctx, event)
}

func (d *recordingDispatcher) Subscribe(t events.EventType, h events.EventHandler) {
	d.inner.Subscribe(t, h)
}

func (d *recordingDispatcher) SubscribeAll(h events.EventHandler) {
	d.inner.SubscribeAll(h)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

func (d *recordingDispatcher) last() events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events[len(d.events)-1]
}

// --- Fixtures ---

type fixture struct {
	profiles    *memProfiles
	teams       *memTeams
	activities  *memActivities
	callups     *memCallups
	scheduled   *memScheduled
	quizzes     *memQuizzes
	assignments *memAssignments
	dispatcher  *recordingDispatcher

	coach  *auth.Principal
	team   *domain.Team
	player *auth.Principal
}

// newFixture seeds one coach owning one team with one player on it.
func newFixture() *fixture {
	f := &fixture{
		profiles:   newMemProfiles(),
		teams:      newMemTeams(),
		activities: newMemActivities(),
		scheduled:  newMemScheduled(),
		quizzes:    newMemQuizzes(),
		dispatcher: newRecordingDispatcher(),
	}
	f.callups = newMemCallups(f.activities)
	f.assignments = newMemAssignments(f.quizzes)

	coach := f.profiles.add(domain.Profile{Email: "coach@example.com", FullName: "Coach Carla", Roles: []domain.Role{domain.RoleCoach}})
	f.coach = &auth.Principal{Profile: coach, Role: domain.RoleCoach}

	team := &domain.Team{Name: "U12", Category: "alevin", Code: "ABC234", CoachID: coach.ID}
	_ = f.teams.Create(context.Background(), team)
	f.team = team

	f.player = f.addPlayer("Pablo")
	return f
}

func (f *fixture) addPlayer(name string) *auth.Principal {
	teamID := f.team.ID
	p := f.profiles.add(domain.Profile{
		Email:    strings.ToLower(name) + "@example.com",
		FullName: name,
		TeamID:   &teamID,
		Roles:    []domain.Role{domain.RolePlayer},
	})
	return &auth.Principal{Profile: p, Role: domain.RolePlayer}
}

func (f *fixture) outsider() *auth.Principal {
	p := f.profiles.add(domain.Profile{Email: "other@example.com", FullName: "Other", Roles: []domain.Role{domain.RoleCoach, domain.RolePlayer}})
	return &auth.Principal{Profile: p, Role: domain.RoleCoach}
}

func (f *fixture) addActivity(start time.Time, d time.Duration) *domain.Activity {
	a := &domain.Activity{
		TeamID:    f.team.ID,
		Type:      domain.ActivityTypeTraining,
		Title:     "Training",
		Location:  "Field 1",
		StartsAt:  start,
		EndsAt:    start.Add(d),
		CreatedBy: f.coach.ID(),
	}
	_ = f.activities.Create(context.Background(), a)
	return a
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "teams_code_key"}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// --- Password resets ---

type memResets struct {
	mu     sync.Mutex
	byHash map[string]*repository.PasswordResetToken
}

func newMemResets() *memResets {
	return &memResets{byHash: map[string]*repository.PasswordResetToken{}}
}

func (m *memResets) Create(_ context.Context, token *repository.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	cp := *token
	m.byHash[token.TokenHash] = &cp
	return nil
}

func (m *memResets) GetByHash(_ context.Context, tokenHash string) (*repository.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.byHash[tokenHash]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *token
	return &cp, nil
}

func (m *memResets) MarkUsed(_ context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.byHash {
		if token.ID == id && token.UsedAt == nil {
			token.UsedAt = &usedAt
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memResets) InvalidateForProfile(_ context.Context, profileID string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.byHash {
		if token.ProfileID == profileID && token.UsedAt == nil {
			token.UsedAt = &usedAt
		}
	}
	return nil
}
