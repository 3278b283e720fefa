package http

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/squad-service/internal/domain"
)

type memProfiles struct {
	mu   sync.Mutex
	byID map[string]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: map[string]domain.Profile{}}
}

func (m *memProfiles) add(p domain.Profile) *domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.byID[p.ID] = p
	return &p
}

func (m *memProfiles) CreateWithRole(_ context.Context, p *domain.Profile, role domain.Role) error {
	p.Roles = []domain.Role{role}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	*p = *m.add(*p)
	return nil
}

func (m *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memProfiles) ListByTeam(_ context.Context, teamID string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Profile
	for _, p := range m.byID {
		if p.BelongsTo(teamID) {
			out = append(out, p)
		}
	}
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
	m.byID[profileID] = p
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
	m.byID[profileID] = p
	return nil
}

type memTeams struct {
	mu   sync.Mutex
	byID map[string]domain.Team
}

func newMemTeams() *memTeams {
	return &memTeams{byID: map[string]domain.Team{}}
}

func (m *memTeams) Create(_ context.Context, t *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.byID[t.ID] = *t
	return nil
}

func (m *memTeams) Update(_ context.Context, t *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[t.ID] = *t
	return nil
}

func (m *memTeams) UpdateCode(_ context.Context, teamID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Code = code
	m.byID[teamID] = t
	return nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (m *memTeams) GetByCode(_ context.Context, code string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.Code == code {
			return &t, nil
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
			out = append(out, t)
		}
	}
	return out, nil
}

type memQuizzes struct {
	mu   sync.Mutex
	byID map[string]domain.CustomQuiz
}

func newMemQuizzes() *memQuizzes {
	return &memQuizzes{byID: map[string]domain.CustomQuiz{}}
}

func (m *memQuizzes) Create(_ context.Context, q *domain.CustomQuiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.NewString()
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.byID[q.ID] = *q
	return nil
}

func (m *memQuizzes) Update(_ context.Context, q *domain.CustomQuiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[q.ID] = *q
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
	return &q, nil
}

func (m *memQuizzes) ListByTeam(_ context.Context, teamID string) ([]domain.CustomQuiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.CustomQuiz{}
	for _, q := range m.byID {
		if q.TeamID == teamID {
			out = append(out, q)
		}
	}
	return out, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var errDown = errors.New("connection refused")
