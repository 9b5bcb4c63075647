package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// AnswerRepository handles graded answer record data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// BulkInsertTx writes the full answer set of one submit via COPY. Runs
// inside the submit transaction so a lost transition race discards it.
func (r *AnswerRepository) BulkInsertTx(ctx context.Context, tx pgx.Tx, answers []model.Answer) error {
	rows := make([][]any, 0, len(answers))
	for i := range answers {
		a := &answers[i]
		selected, err := json.Marshal(a.Selected)
		if err != nil {
			return fmt.Errorf("marshal result snapshot: %w", err)
		}
		rows = append(rows, []any{
			a.ID, a.AttemptID, a.UserID,
			a.QuestionID, a.QuestionVersionID, a.SelectedOptionID,
			a.IsCorrect, selected, a.CreatedAt,
		})
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"answers"},
		[]string{"id", "attempt_id", "user_id", "question_id", "question_version_id", "selected_option_id", "is_correct", "selected_snapshot", "created_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// InsertTx writes a single answer row. Fallback path for when the COPY
// write fails; the caller re-runs it inside a fresh transaction.
func (r *AnswerRepository) InsertTx(ctx context.Context, tx DB, a *model.Answer) error {
	selected, err := json.Marshal(a.Selected)
	if err != nil {
		return fmt.Errorf("marshal result snapshot: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO answers (id, attempt_id, user_id, question_id, question_version_id, selected_option_id, is_correct, selected_snapshot, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.AttemptID, a.UserID, a.QuestionID, a.QuestionVersionID, a.SelectedOptionID, a.IsCorrect, selected, a.CreatedAt)
	return err
}

// ListByAttempt retrieves all answer rows of an attempt in insertion order.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, user_id, question_id, question_version_id, selected_option_id, is_correct, selected_snapshot, created_at
		 FROM answers
		 WHERE attempt_id = $1
		 ORDER BY created_at, id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		var selected []byte
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.UserID, &a.QuestionID, &a.QuestionVersionID, &a.SelectedOptionID, &a.IsCorrect, &selected, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(selected, &a.Selected); err != nil {
			return nil, fmt.Errorf("unmarshal result snapshot: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
