package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, user_id, exam_id, raw_snapshot, started_at, submitted_at, duration_sec, score`

// Create inserts a new attempt in the open state. The snapshot bundle is
// written once here and never updated afterwards.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	snapshot, err := json.Marshal(a.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (user_id, exam_id, raw_snapshot)
		 VALUES ($1, $2, $3)
		 RETURNING id, started_at`,
		a.UserID, a.ExamID, snapshot,
	).Scan(&a.ID, &a.StartedAt)
}

// GetByID retrieves an attempt regardless of owner. Callers that serve
// external reads must use GetByIDForUser instead.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1`, id))
}

// GetByIDForUser retrieves an attempt only when userID owns it. A non-owner
// gets pgx.ErrNoRows, indistinguishable from a missing attempt.
func (r *AttemptRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Attempt, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1 AND user_id = $2`, id, userID))
}

// MarkGradedTx performs the single conditional open→graded transition inside
// the submit transaction. It returns false when zero rows were affected,
// which proves a concurrent submit already won the race.
func (r *AttemptRepository) MarkGradedTx(ctx context.Context, tx DB, id uuid.UUID, submittedAt time.Time, durationSec *int, score float64) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE exam_attempts
		 SET submitted_at = $1, duration_sec = $2, score = $3
		 WHERE id = $4 AND submitted_at IS NULL`,
		submittedAt, durationSec, score, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AttemptRepository) scanOne(row interface{ Scan(dest ...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	var rawSnapshot []byte
	if err := row.Scan(&a.ID, &a.UserID, &a.ExamID, &rawSnapshot, &a.StartedAt, &a.SubmittedAt, &a.DurationSec, &a.Score); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawSnapshot, &a.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return a, nil
}
