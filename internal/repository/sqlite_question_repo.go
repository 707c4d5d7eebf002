package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studytracker-backend/internal/models"
)

// SQLiteQuestionRepo stores questions in a local SQLite file. Timestamps are
// kept as RFC 3339 text so they round-trip independent of driver settings.
type SQLiteQuestionRepo struct {
	db *sql.DB
}

func NewSQLiteQuestionRepo(db *sql.DB) *SQLiteQuestionRepo {
	return &SQLiteQuestionRepo{db: db}
}

func (r *SQLiteQuestionRepo) List(ctx context.Context) ([]*models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		q, err := scanSQLiteQuestion(rows)
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

func (r *SQLiteQuestionRepo) Get(ctx context.Context, id int64) (*models.Question, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanSQLiteQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

func (r *SQLiteQuestionRepo) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	attempts, err := encodeAttempts(q.Attempts)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (source, problem, subject, total_time, remaining_time, status, never_look_up,
			attempts, time_spent, solved_independently, skipped, last_attempt, current_session_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Source, q.Problem, q.Subject, q.TotalTime, q.RemainingTime, string(q.Status), q.NeverLookUp,
		string(attempts), q.TimeSpent, nullBool(q.SolvedIndependently), q.Skipped, nullTime(q.LastAttempt),
		q.CurrentSessionTime, formatTime(q.Created),
	)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted id: %w", err)
	}

	stored := q.Clone()
	stored.ID = id
	if stored.Attempts == nil {
		stored.Attempts = []models.Attempt{}
	}
	return stored, nil
}

func (r *SQLiteQuestionRepo) Update(ctx context.Context, id int64, q *models.Question) error {
	attempts, err := encodeAttempts(q.Attempts)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE questions
		SET source = ?, problem = ?, subject = ?, total_time = ?, remaining_time = ?, status = ?,
			never_look_up = ?, attempts = ?, time_spent = ?, solved_independently = ?, skipped = ?,
			last_attempt = ?, current_session_time = ?
		WHERE id = ?`,
		q.Source, q.Problem, q.Subject, q.TotalTime, q.RemainingTime, string(q.Status),
		q.NeverLookUp, string(attempts), q.TimeSpent, nullBool(q.SolvedIndependently), q.Skipped,
		nullTime(q.LastAttempt), q.CurrentSessionTime, id,
	)
	if err != nil {
		return fmt.Errorf("update question %d: %w", id, err)
	}
	return requireAffected(res)
}

func (r *SQLiteQuestionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	return requireAffected(res)
}

func (r *SQLiteQuestionRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM questions"); err != nil {
		return fmt.Errorf("delete all questions: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteQuestion(row rowScanner) (*models.Question, error) {
	q := &models.Question{}
	var (
		status      string
		attempts    string
		solved      sql.NullBool
		lastAttempt sql.NullString
		created     string
	)

	err := row.Scan(
		&q.ID, &q.Source, &q.Problem, &q.Subject, &q.TotalTime, &q.RemainingTime, &status, &q.NeverLookUp,
		&attempts, &q.TimeSpent, &solved, &q.Skipped, &lastAttempt, &q.CurrentSessionTime, &created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}

	q.Status = models.Status(status)
	if q.Attempts, err = decodeAttempts([]byte(attempts)); err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}
	if solved.Valid {
		v := solved.Bool
		q.SolvedIndependently = &v
	}
	if lastAttempt.Valid {
		t, err := parseTime(lastAttempt.String)
		if err != nil {
			return nil, fmt.Errorf("question %d last_attempt: %w", q.ID, err)
		}
		q.LastAttempt = &t
	}
	if q.Created, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("question %d created_at: %w", q.ID, err)
	}
	return q, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
