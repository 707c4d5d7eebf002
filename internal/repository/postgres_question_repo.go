package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytracker-backend/internal/models"
)

type PostgresQuestionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresQuestionRepo(pool *pgxpool.Pool) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{pool: pool}
}

func (r *PostgresQuestionRepo) List(ctx context.Context) ([]*models.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		q, err := scanPostgresQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

func (r *PostgresQuestionRepo) Get(ctx context.Context, id int64) (*models.Question, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanPostgresQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

func (r *PostgresQuestionRepo) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	attempts, err := encodeAttempts(q.Attempts)
	if err != nil {
		return nil, err
	}

	stored := q.Clone()
	query := `INSERT INTO questions (source, problem, subject, total_time, remaining_time, status, never_look_up,
			attempts, time_spent, solved_independently, skipped, last_attempt, current_session_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	err = r.pool.QueryRow(ctx, query,
		q.Source, q.Problem, q.Subject, q.TotalTime, q.RemainingTime, string(q.Status), q.NeverLookUp,
		attempts, q.TimeSpent, q.SolvedIndependently, q.Skipped, q.LastAttempt, q.CurrentSessionTime, q.Created,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	if stored.Attempts == nil {
		stored.Attempts = []models.Attempt{}
	}
	return stored, nil
}

func (r *PostgresQuestionRepo) Update(ctx context.Context, id int64, q *models.Question) error {
	attempts, err := encodeAttempts(q.Attempts)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE questions
		SET source = $1, problem = $2, subject = $3, total_time = $4, remaining_time = $5, status = $6,
			never_look_up = $7, attempts = $8, time_spent = $9, solved_independently = $10, skipped = $11,
			last_attempt = $12, current_session_time = $13
		WHERE id = $14`,
		q.Source, q.Problem, q.Subject, q.TotalTime, q.RemainingTime, string(q.Status),
		q.NeverLookUp, attempts, q.TimeSpent, q.SolvedIndependently, q.Skipped,
		q.LastAttempt, q.CurrentSessionTime, id,
	)
	if err != nil {
		return fmt.Errorf("update question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresQuestionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM questions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresQuestionRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM questions"); err != nil {
		return fmt.Errorf("delete all questions: %w", err)
	}
	return nil
}

func scanPostgresQuestion(row pgx.Row) (*models.Question, error) {
	q := &models.Question{}
	var status string
	var attempts []byte

	err := row.Scan(
		&q.ID, &q.Source, &q.Problem, &q.Subject, &q.TotalTime, &q.RemainingTime, &status, &q.NeverLookUp,
		&attempts, &q.TimeSpent, &q.SolvedIndependently, &q.Skipped, &q.LastAttempt, &q.CurrentSessionTime, &q.Created,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}

	q.Status = models.Status(status)
	if q.Attempts, err = decodeAttempts(attempts); err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}
	return q, nil
}
