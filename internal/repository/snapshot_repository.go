package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// SnapshotRepository handles immutable question snapshot data access.
// Snapshots are append-only: there is no update or delete here.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `id, question_id, version_number, text, options, explanation, created_at`

// LatestByQuestion returns the highest-version snapshot for a question, or
// pgx.ErrNoRows when the question was never snapshotted.
func (r *SnapshotRepository) LatestByQuestion(ctx context.Context, questionID uuid.UUID) (*model.QuestionSnapshot, error) {
	return scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+`
		 FROM question_versions
		 WHERE question_id = $1
		 ORDER BY version_number DESC
		 LIMIT 1`, questionID))
}

// GetByID retrieves a snapshot by its id.
func (r *SnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuestionSnapshot, error) {
	return scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM question_versions WHERE id = $1`, id))
}

// Insert appends the next snapshot version for a question. The version
// number is computed in the same statement; a concurrent insert for the
// same question may produce duplicate content at adjacent versions, which
// is tolerated rather than serialized.
func (r *SnapshotRepository) Insert(ctx context.Context, db DB, s *model.QuestionSnapshot) error {
	options, err := json.Marshal(s.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	return db.QueryRow(ctx,
		`INSERT INTO question_versions (question_id, version_number, text, options, explanation)
		 VALUES ($1, (SELECT COALESCE(MAX(version_number), 0) + 1 FROM question_versions WHERE question_id = $1), $2, $3, $4)
		 RETURNING id, version_number, created_at`,
		s.QuestionID, s.Text, options, s.Explanation,
	).Scan(&s.ID, &s.VersionNumber, &s.CreatedAt)
}

func scanSnapshot(row interface{ Scan(dest ...any) error }) (*model.QuestionSnapshot, error) {
	s := &model.QuestionSnapshot{}
	var options []byte
	if err := row.Scan(&s.ID, &s.QuestionID, &s.VersionNumber, &s.Text, &options, &s.Explanation, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &s.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return s, nil
}
