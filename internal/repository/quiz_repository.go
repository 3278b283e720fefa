package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/squad-service/internal/domain"
)

// QuizRepository persists custom quizzes. Questions are stored as JSONB.
type QuizRepository interface {
	Create(ctx context.Context, quiz *domain.CustomQuiz) error
	Update(ctx context.Context, quiz *domain.CustomQuiz) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CustomQuiz, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.CustomQuiz, error)
}

type quizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository constructs repository.
func NewQuizRepository(pool *pgxpool.Pool) QuizRepository {
	return &quizRepository{pool: pool}
}

const quizColumns = `id, team_id, created_by, title, description, questions, created_at, updated_at`

func (r *quizRepository) Create(ctx context.Context, quiz *domain.CustomQuiz) error {
	const query = `
        INSERT INTO custom_quizzes (team_id, created_by, title, description, questions)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		quiz.TeamID,
		quiz.CreatedBy,
		quiz.Title,
		quiz.Description,
		quiz.Questions,
	).Scan(&quiz.ID, &quiz.CreatedAt, &quiz.UpdatedAt)
}

func (r *quizRepository) Update(ctx context.Context, quiz *domain.CustomQuiz) error {
	const query = `
        UPDATE custom_quizzes SET title=$1, description=$2, questions=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		quiz.Title,
		quiz.Description,
		quiz.Questions,
		quiz.ID,
	).Scan(&quiz.UpdatedAt)
}

func (r *quizRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM custom_quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *quizRepository) GetByID(ctx context.Context, id string) (*domain.CustomQuiz, error) {
	query := `SELECT ` + quizColumns + ` FROM custom_quizzes WHERE id=$1`
	return scanQuiz(r.pool.QueryRow(ctx, query, id))
}

func (r *quizRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.CustomQuiz, error) {
	query := `SELECT ` + quizColumns + ` FROM custom_quizzes WHERE team_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CustomQuiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *quiz)
	}
	return result, rows.Err()
}

func scanQuiz(row pgx.Row) (*domain.CustomQuiz, error) {
	var quiz domain.CustomQuiz
	if err := row.Scan(
		&quiz.ID,
		&quiz.TeamID,
		&quiz.CreatedBy,
		&quiz.Title,
		&quiz.Description,
		&quiz.Questions,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &quiz, nil
}
