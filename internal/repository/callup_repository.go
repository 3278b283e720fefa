package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// PendingCallup joins a pending response with its activity for player inboxes.
type PendingCallup struct {
	Response domain.CallupResponse
	Activity domain.Activity
}

// CallupRepository persists attendance responses.
type CallupRepository interface {
	// EnsurePending inserts pending rows for players not yet called up and
	// returns the ids that were newly inserted.
	EnsurePending(ctx context.Context, activityID string, playerIDs []string) ([]string, error)
	Upsert(ctx context.Context, response *domain.CallupResponse) error
	Get(ctx context.Context, activityID, playerID string) (*domain.CallupResponse, error)
	ListByActivity(ctx context.Context, activityID string) ([]domain.CallupResponse, error)
	ListPendingByPlayer(ctx context.Context, playerID string) ([]PendingCallup, error)
}

type callupRepository struct {
	pool *pgxpool.Pool
}

// NewCallupRepository constructs repository.
func NewCallupRepository(pool *pgxpool.Pool) CallupRepository {
	return &callupRepository{pool: pool}
}

const callupColumns = `id, activity_id, player_id, status, note, responded_at, created_at, updated_at`

func (r *callupRepository) EnsurePending(ctx context.Context, activityID string, playerIDs []string) ([]string, error) {
	const query = `
        INSERT INTO callup_responses (activity_id, player_id, status)
        SELECT $1, player_id, 'pending' FROM unnest($2::uuid[]) AS player_id
        ON CONFLICT (activity_id, player_id) DO NOTHING
        RETURNING player_id`
	rows, err := r.pool.Query(ctx, query, activityID, playerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inserted := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		inserted = append(inserted, id)
	}
	return inserted, rows.Err()
}

func (r *callupRepository) Upsert(ctx context.Context, response *domain.CallupResponse) error {
	const query = `
        INSERT INTO callup_responses (activity_id, player_id, status, note, responded_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (activity_id, player_id) DO UPDATE
            SET status=EXCLUDED.status, note=EXCLUDED.note, responded_at=EXCLUDED.responded_at, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		response.ActivityID,
		response.PlayerID,
		response.Status,
		response.Note,
		response.RespondedAt,
	).Scan(&response.ID, &response.CreatedAt, &response.UpdatedAt)
}

func (r *callupRepository) Get(ctx context.Context, activityID, playerID string) (*domain.CallupResponse, error) {
	query := `SELECT ` + callupColumns + ` FROM callup_responses WHERE activity_id=$1 AND player_id=$2`
	return scanCallup(r.pool.QueryRow(ctx, query, activityID, playerID))
}

func (r *callupRepository) ListByActivity(ctx context.Context, activityID string) ([]domain.CallupResponse, error) {
	query := `SELECT ` + callupColumns + ` FROM callup_responses WHERE activity_id=$1 ORDER BY created_at, player_id`
	rows, err := r.pool.Query(ctx, query, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CallupResponse{}
	for rows.Next() {
		response, err := scanCallup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *response)
	}
	return result, rows.Err()
}

func (r *callupRepository) ListPendingByPlayer(ctx context.Context, playerID string) ([]PendingCallup, error) {
	const query = `
        SELECT c.id, c.activity_id, c.player_id, c.status, c.note, c.responded_at, c.created_at, c.updated_at,
               a.id, a.team_id, a.type, a.title, a.description, a.location, a.opponent, a.starts_at, a.ends_at,
               a.created_by, a.created_at, a.updated_at
        FROM callup_responses c
        JOIN activities a ON a.id = c.activity_id
        WHERE c.player_id=$1 AND c.status='pending' AND a.ends_at > NOW()
        ORDER BY a.starts_at`
	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []PendingCallup{}
	for rows.Next() {
		var item PendingCallup
		if err := rows.Scan(
			&item.Response.ID,
			&item.Response.ActivityID,
			&item.Response.PlayerID,
			&item.Response.Status,
			&item.Response.Note,
			&item.Response.RespondedAt,
			&item.Response.CreatedAt,
			&item.Response.UpdatedAt,
			&item.Activity.ID,
			&item.Activity.TeamID,
			&item.Activity.Type,
			&item.Activity.Title,
			&item.Activity.Description,
			&item.Activity.Location,
			&item.Activity.Opponent,
			&item.Activity.StartsAt,
			&item.Activity.EndsAt,
			&item.Activity.CreatedBy,
			&item.Activity.CreatedAt,
			&item.Activity.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func scanCallup(row pgx.Row) (*domain.CallupResponse, error) {
	var response domain.CallupResponse
	if err := row.Scan(
		&response.ID,
		&response.ActivityID,
		&response.PlayerID,
		&response.Status,
		&response.Note,
		&response.RespondedAt,
		&response.CreatedAt,
		&response.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &response, nil
}
