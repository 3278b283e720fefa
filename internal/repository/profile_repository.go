package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// ProfileRepository defines persistence access for profiles and their roles.
type ProfileRepository interface {
	CreateWithRole(ctx context.Context, profile *domain.Profile, role domain.Role) error
	Update(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.Profile, error)
	SetTeam(ctx context.Context, profileID string, teamID *string) error
	AddRole(ctx context.Context, profileID string, role domain.Role) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `
        p.id, p.email, p.password_hash, p.full_name, p.team_id, p.position, p.jersey_number,
        p.birth_date, p.phone, p.created_at, p.updated_at,
        COALESCE((SELECT array_agg(r.role ORDER BY r.role) FROM user_roles r WHERE r.user_id = p.id), '{}')`

func (r *profileRepository) CreateWithRole(ctx context.Context, profile *domain.Profile, role domain.Role) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertProfile = `
            INSERT INTO profiles (email, password_hash, full_name, position, jersey_number, birth_date, phone)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, insertProfile,
			profile.Email,
			profile.PasswordHash,
			profile.FullName,
			profile.Position,
			profile.JerseyNumber,
			profile.BirthDate,
			profile.Phone,
		).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return err
		}

		const insertRole = `INSERT INTO user_roles (user_id, role) VALUES ($1,$2)`
		if _, err := tx.Exec(ctx, insertRole, profile.ID, role); err != nil {
			return err
		}
		profile.Roles = []domain.Role{role}
		return nil
	})
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	const query = `
        UPDATE profiles SET full_name=$1, password_hash=$2, position=$3, jersey_number=$4,
            birth_date=$5, phone=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		profile.FullName,
		profile.PasswordHash,
		profile.Position,
		profile.JerseyNumber,
		profile.BirthDate,
		profile.Phone,
		profile.ID,
	).Scan(&profile.UpdatedAt)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles p WHERE p.id=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles p WHERE LOWER(p.email)=LOWER($1)`
	return scanProfile(r.pool.QueryRow(ctx, query, email))
}

func (r *profileRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles p WHERE p.team_id=$1 ORDER BY p.jersey_number NULLS LAST, p.full_name`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) SetTeam(ctx context.Context, profileID string, teamID *string) error {
	const query = `UPDATE profiles SET team_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, teamID, profileID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) AddRole(ctx context.Context, profileID string, role domain.Role) error {
	const query = `
        INSERT INTO user_roles (user_id, role) VALUES ($1,$2)
        ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, profileID, role)
	return err
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		profile domain.Profile
		roles   []string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.FullName,
		&profile.TeamID,
		&profile.Position,
		&profile.JerseyNumber,
		&profile.BirthDate,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&roles,
	); err != nil {
		return nil, err
	}
	profile.Roles = make([]domain.Role, 0, len(roles))
	for _, role := range roles {
		profile.Roles = append(profile.Roles, domain.Role(role))
	}
	return &profile, nil
}
