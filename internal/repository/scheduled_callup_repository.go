package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// sendingLease bounds how long a claimed row may stay in "sending" before
// another worker pass may claim it again.
const sendingLease = 10 * time.Minute

// ScheduledCallupRepository persists deferred callups.
type ScheduledCallupRepository interface {
	Create(ctx context.Context, sc *domain.ScheduledCallup) error
	GetByID(ctx context.Context, id string) (*domain.ScheduledCallup, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.ScheduledCallup, error)
	Cancel(ctx context.Context, id string) error
	// ClaimDue moves up to limit due rows to "sending" and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledCallup, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type scheduledCallupRepository struct {
	pool *pgxpool.Pool
}

// NewScheduledCallupRepository constructs repository.
func NewScheduledCallupRepository(pool *pgxpool.Pool) ScheduledCallupRepository {
	return &scheduledCallupRepository{pool: pool}
}

func (r *scheduledCallupRepository) Create(ctx context.Context, sc *domain.ScheduledCallup) error {
	const query = `
        INSERT INTO scheduled_callups (activity_id, team_id, player_ids, send_at, status, created_by)
        VALUES ($1,$2,$3::uuid[],$4,$5,$6)
        RETURNING id, created_at, updated_at`
	playerIDs := sc.PlayerIDs
	if playerIDs == nil {
		playerIDs = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		sc.ActivityID,
		sc.TeamID,
		playerIDs,
		sc.SendAt,
		sc.Status,
		sc.CreatedBy,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
}

func (r *scheduledCallupRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledCallup, error) {
	query := `SELECT ` + scheduledCallupColumns + ` FROM scheduled_callups WHERE id=$1`
	return scanScheduledCallup(r.pool.QueryRow(ctx, query, id))
}

func (r *scheduledCallupRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.ScheduledCallup, error) {
	query := `SELECT ` + scheduledCallupColumns + ` FROM scheduled_callups WHERE team_id=$1 ORDER BY send_at DESC`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledCallups(rows)
}

func (r *scheduledCallupRepository) Cancel(ctx context.Context, id string) error {
	const query = `
        UPDATE scheduled_callups SET status='cancelled', updated_at=NOW()
        WHERE id=$1 AND status='scheduled'`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scheduledCallupRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledCallup, error) {
	if limit <= 0 {
		limit = 25
	}
	query := `
        WITH due AS (
            SELECT id FROM scheduled_callups
            WHERE send_at <= $1
              AND (status='scheduled' OR (status='sending' AND updated_at < $2))
            ORDER BY send_at
            LIMIT $3
            FOR UPDATE SKIP LOCKED
        )
        UPDATE scheduled_callups s SET status='sending', updated_at=NOW()
        FROM due WHERE s.id = due.id
        RETURNING ` + prefixed("s.", scheduledCallupColumnList)
	rows, err := r.pool.Query(ctx, query, now, now.Add(-sendingLease), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledCallups(rows)
}

func (r *scheduledCallupRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	const query = `
        UPDATE scheduled_callups SET status='sent', sent_at=$1, last_error=NULL, updated_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, sentAt, id)
	return err
}

func (r *scheduledCallupRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	const query = `
        UPDATE scheduled_callups SET status='failed', last_error=$1, updated_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, reason, id)
	return err
}

var (
	scheduledCallupColumnList = []string{
		"id", "activity_id", "team_id", "player_ids", "send_at", "status", "sent_at", "last_error",
		"created_by", "created_at", "updated_at",
	}
	scheduledCallupColumns = prefixed("", scheduledCallupColumnList)
)

func prefixed(prefix string, columns []string) string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = prefix + col
	}
	return strings.Join(out, ", ")
}

func collectScheduledCallups(rows pgx.Rows) ([]domain.ScheduledCallup, error) {
	result := []domain.ScheduledCallup{}
	for rows.Next() {
		sc, err := scanScheduledCallup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sc)
	}
	return result, rows.Err()
}

func scanScheduledCallup(row pgx.Row) (*domain.ScheduledCallup, error) {
	var sc domain.ScheduledCallup
	if err := row.Scan(
		&sc.ID,
		&sc.ActivityID,
		&sc.TeamID,
		&sc.PlayerIDs,
		&sc.SendAt,
		&sc.Status,
		&sc.SentAt,
		&sc.LastError,
		&sc.CreatedBy,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sc, nil
}
