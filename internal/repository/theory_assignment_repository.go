package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// AssignmentWithQuiz joins an assignment with its quiz title for listings.
type AssignmentWithQuiz struct {
	Assignment domain.TheoryAssignment
	QuizTitle  string
	Questions  int
}

// TheoryAssignmentRepository persists quiz assignments.
type TheoryAssignmentRepository interface {
	// Assign inserts or refreshes the (quiz, player) row. Existing results are kept.
	Assign(ctx context.Context, assignment *domain.TheoryAssignment) error
	GetByID(ctx context.Context, id string) (*domain.TheoryAssignment, error)
	ListByPlayer(ctx context.Context, playerID string) ([]AssignmentWithQuiz, error)
	ListByTeam(ctx context.Context, teamID string, quizID *string) ([]AssignmentWithQuiz, error)
	// RecordResult stores a finished attempt, keeping the best score.
	RecordResult(ctx context.Context, id string, score, total int, completedAt time.Time) (*domain.TheoryAssignment, error)
	Delete(ctx context.Context, id string) error
}

type theoryAssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewTheoryAssignmentRepository constructs repository.
func NewTheoryAssignmentRepository(pool *pgxpool.Pool) TheoryAssignmentRepository {
	return &theoryAssignmentRepository{pool: pool}
}

const assignmentColumns = `
        t.id, t.quiz_id, t.player_id, t.team_id, t.assigned_by, t.due_date, t.score, t.total,
        t.attempts, t.completed_at, t.created_at, t.updated_at`

func (r *theoryAssignmentRepository) Assign(ctx context.Context, assignment *domain.TheoryAssignment) error {
	query := `
        INSERT INTO theory_assignments AS t (quiz_id, player_id, team_id, assigned_by, due_date)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (quiz_id, player_id) DO UPDATE
            SET due_date=COALESCE(EXCLUDED.due_date, t.due_date), assigned_by=EXCLUDED.assigned_by, updated_at=NOW()
        RETURNING ` + assignmentColumns
	row := r.pool.QueryRow(ctx, query,
		assignment.QuizID,
		assignment.PlayerID,
		assignment.TeamID,
		assignment.AssignedBy,
		assignment.DueDate,
	)
	stored, err := scanAssignment(row)
	if err != nil {
		return err
	}
	*assignment = *stored
	return nil
}

func (r *theoryAssignmentRepository) GetByID(ctx context.Context, id string) (*domain.TheoryAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM theory_assignments t WHERE t.id=$1`
	return scanAssignment(r.pool.QueryRow(ctx, query, id))
}

func (r *theoryAssignmentRepository) ListByPlayer(ctx context.Context, playerID string) ([]AssignmentWithQuiz, error) {
	query := `SELECT ` + assignmentColumns + `, q.title, jsonb_array_length(q.questions)
        FROM theory_assignments t
        JOIN custom_quizzes q ON q.id = t.quiz_id
        WHERE t.player_id=$1
        ORDER BY t.completed_at NULLS FIRST, t.due_date NULLS LAST, t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (r *theoryAssignmentRepository) ListByTeam(ctx context.Context, teamID string, quizID *string) ([]AssignmentWithQuiz, error) {
	query := `SELECT ` + assignmentColumns + `, q.title, jsonb_array_length(q.questions)
        FROM theory_assignments t
        JOIN custom_quizzes q ON q.id = t.quiz_id
        WHERE t.team_id=$1 AND ($2::uuid IS NULL OR t.quiz_id=$2::uuid)
        ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, teamID, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (r *theoryAssignmentRepository) RecordResult(ctx context.Context, id string, score, total int, completedAt time.Time) (*domain.TheoryAssignment, error) {
	query := `
        UPDATE theory_assignments AS t SET
            score=CASE WHEN t.score IS NULL OR $2 > t.score THEN $2 ELSE t.score END,
            total=$3,
            attempts=t.attempts + 1,
            completed_at=$4,
            updated_at=NOW()
        WHERE t.id=$1
        RETURNING ` + assignmentColumns
	return scanAssignment(r.pool.QueryRow(ctx, query, id, score, total, completedAt))
}

func (r *theoryAssignmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM theory_assignments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func collectAssignments(rows pgx.Rows) ([]AssignmentWithQuiz, error) {
	result := []AssignmentWithQuiz{}
	for rows.Next() {
		var item AssignmentWithQuiz
		a := &item.Assignment
		if err := rows.Scan(
			&a.ID,
			&a.QuizID,
			&a.PlayerID,
			&a.TeamID,
			&a.AssignedBy,
			&a.DueDate,
			&a.Score,
			&a.Total,
			&a.Attempts,
			&a.CompletedAt,
			&a.CreatedAt,
			&a.UpdatedAt,
			&item.QuizTitle,
			&item.Questions,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func scanAssignment(row pgx.Row) (*domain.TheoryAssignment, error) {
	var a domain.TheoryAssignment
	if err := row.Scan(
		&a.ID,
		&a.QuizID,
		&a.PlayerID,
		&a.TeamID,
		&a.AssignedBy,
		&a.DueDate,
		&a.Score,
		&a.Total,
		&a.Attempts,
		&a.CompletedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
