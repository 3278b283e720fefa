package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// TeamRepository manages persistence for teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	UpdateCode(ctx context.Context, teamID, code string) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByCode(ctx context.Context, code string) (*domain.Team, error)
	ListByCoach(ctx context.Context, coachID string) ([]domain.Team, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (name, category, code, coach_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		team.Name,
		team.Category,
		team.Code,
		team.CoachID,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, category=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query,
		team.Name,
		team.Category,
		team.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) UpdateCode(ctx context.Context, teamID, code string) error {
	const query = `UPDATE teams SET code=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, code, teamID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, category, code, coach_id, created_at, updated_at
        FROM teams WHERE id=$1`
	return scanTeam(r.pool.QueryRow(ctx, query, id))
}

func (r *teamRepository) GetByCode(ctx context.Context, code string) (*domain.Team, error) {
	const query = `
        SELECT id, name, category, code, coach_id, created_at, updated_at
        FROM teams WHERE code=$1`
	return scanTeam(r.pool.QueryRow(ctx, query, code))
}

func (r *teamRepository) ListByCoach(ctx context.Context, coachID string) ([]domain.Team, error) {
	const query = `
        SELECT id, name, category, code, coach_id, created_at, updated_at
        FROM teams WHERE coach_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *team)
	}
	return result, rows.Err()
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	if err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Category,
		&team.Code,
		&team.CoachID,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}
