package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// ActivityRepository encapsulates activity persistence.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	Update(ctx context.Context, activity *domain.Activity) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	// ListByTeamRange returns activities overlapping [from, to).
	ListByTeamRange(ctx context.Context, teamID string, from, to time.Time) ([]domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityColumns = `
        id, team_id, type, title, description, location, opponent, starts_at, ends_at,
        created_by, created_at, updated_at`

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO activities (team_id, type, title, description, location, opponent, starts_at, ends_at, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		activity.TeamID,
		activity.Type,
		activity.Title,
		activity.Description,
		activity.Location,
		activity.Opponent,
		activity.StartsAt,
		activity.EndsAt,
		activity.CreatedBy,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

func (r *activityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	const query = `
        UPDATE activities SET type=$1, title=$2, description=$3, location=$4, opponent=$5,
            starts_at=$6, ends_at=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		activity.Type,
		activity.Title,
		activity.Description,
		activity.Location,
		activity.Opponent,
		activity.StartsAt,
		activity.EndsAt,
		activity.ID,
	).Scan(&activity.UpdatedAt)
}

func (r *activityRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id=$1`
	return scanActivity(r.pool.QueryRow(ctx, query, id))
}

func (r *activityRepository) ListByTeamRange(ctx context.Context, teamID string, from, to time.Time) ([]domain.Activity, error) {
	query := `SELECT ` + activityColumns + `
        FROM activities
        WHERE team_id=$1 AND starts_at < $3 AND ends_at > $2
        ORDER BY starts_at, id`
	rows, err := r.pool.Query(ctx, query, teamID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *activity)
	}
	return result, rows.Err()
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	if err := row.Scan(
		&activity.ID,
		&activity.TeamID,
		&activity.Type,
		&activity.Title,
		&activity.Description,
		&activity.Location,
		&activity.Opponent,
		&activity.StartsAt,
		&activity.EndsAt,
		&activity.CreatedBy,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &activity, nil
}
