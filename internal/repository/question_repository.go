package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// QuestionRepository handles live question and option data access. This is
// the editable content store; grading reads only frozen snapshots.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetWithOptions retrieves a question and its options ordered by position.
func (r *QuestionRepository) GetWithOptions(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, topic_id, text, created_at, updated_at FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.TopicID, &q.Text, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, text, is_correct, position FROM options WHERE question_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.Text, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		q.Options = append(q.Options, o)
	}
	return q, rows.Err()
}

// CreateTx inserts a question and its options.
func (r *QuestionRepository) CreateTx(ctx context.Context, tx DB, q *model.Question) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO questions (topic_id, text) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		q.TopicID, q.Text,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}
	return r.insertOptionsTx(ctx, tx, q)
}

// UpdateTextTx updates the live question text.
func (r *QuestionRepository) UpdateTextTx(ctx context.Context, tx DB, id uuid.UUID, text string) error {
	_, err := tx.Exec(ctx,
		`UPDATE questions SET text = $1, updated_at = now() WHERE id = $2`, text, id)
	return err
}

// ReplaceOptionsTx deletes the question's options and recreates them from
// q.Options. Old snapshots keep the frozen copies, so this is safe.
func (r *QuestionRepository) ReplaceOptionsTx(ctx context.Context, tx DB, q *model.Question) error {
	if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, q.ID); err != nil {
		return err
	}
	return r.insertOptionsTx(ctx, tx, q)
}

func (r *QuestionRepository) insertOptionsTx(ctx context.Context, tx DB, q *model.Question) error {
	for i := range q.Options {
		o := &q.Options[i]
		o.Position = i
		err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, text, is_correct, position)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			q.ID, o.Text, o.IsCorrect, o.Position,
		).Scan(&o.ID)
		if err != nil {
			return err
		}
	}
	return nil
}
