package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// WeakAreaRepository handles per-topic weakness weight data access.
type WeakAreaRepository struct {
	pool *pgxpool.Pool
}

// NewWeakAreaRepository creates a new WeakAreaRepository.
func NewWeakAreaRepository(pool *pgxpool.Pool) *WeakAreaRepository {
	return &WeakAreaRepository{pool: pool}
}

const weakAreaColumns = `id, user_id, exam_id, topic_id, weight, meta, created_at, updated_at`

// GetForTopicTx reads the weight row for one (user, exam, topic) triple
// inside the submit transaction. Returns pgx.ErrNoRows on first contact.
func (r *WeakAreaRepository) GetForTopicTx(ctx context.Context, tx DB, userID, examID uuid.UUID, topicID string) (*model.WeakArea, error) {
	return scanWeakArea(tx.QueryRow(ctx,
		`SELECT `+weakAreaColumns+`
		 FROM weak_areas
		 WHERE user_id = $1 AND exam_id = $2 AND topic_id = $3`,
		userID, examID, topicID))
}

// InsertTx seeds a new weight row for a topic's first graded sample.
func (r *WeakAreaRepository) InsertTx(ctx context.Context, tx DB, w *model.WeakArea) error {
	meta, err := json.Marshal(w.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	return tx.QueryRow(ctx,
		`INSERT INTO weak_areas (user_id, exam_id, topic_id, weight, meta)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		w.UserID, w.ExamID, w.TopicID, w.Weight, meta,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// UpdateTx persists a folded weight and meta.
func (r *WeakAreaRepository) UpdateTx(ctx context.Context, tx DB, w *model.WeakArea) error {
	meta, err := json.Marshal(w.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE weak_areas SET weight = $1, meta = $2, updated_at = now() WHERE id = $3`,
		w.Weight, meta, w.ID)
	return err
}

// ListByUserAndExam retrieves a user's weights for one exam, weakest first.
func (r *WeakAreaRepository) ListByUserAndExam(ctx context.Context, userID, examID uuid.UUID) ([]model.WeakArea, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+weakAreaColumns+`
		 FROM weak_areas
		 WHERE user_id = $1 AND exam_id = $2
		 ORDER BY weight DESC, topic_id`,
		userID, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWeakAreas(rows)
}

// ListByPairs bulk-reads all weight rows for a batch of (user, exam) pairs.
// Used by the summary sync worker to refresh many users in one query.
func (r *WeakAreaRepository) ListByPairs(ctx context.Context, userIDs, examIDs []uuid.UUID) ([]model.WeakArea, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+weakAreaColumns+`
		 FROM weak_areas
		 WHERE (user_id, exam_id) IN (
			SELECT u.user_id, u.exam_id
			FROM UNNEST($1::uuid[], $2::uuid[]) AS u (user_id, exam_id)
		 )
		 ORDER BY user_id, exam_id, weight DESC`,
		userIDs, examIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWeakAreas(rows)
}

func collectWeakAreas(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.WeakArea, error) {
	var areas []model.WeakArea
	for rows.Next() {
		w, err := scanWeakArea(rows)
		if err != nil {
			return nil, err
		}
		areas = append(areas, *w)
	}
	return areas, rows.Err()
}

func scanWeakArea(row interface{ Scan(dest ...any) error }) (*model.WeakArea, error) {
	w := &model.WeakArea{}
	var meta []byte
	if err := row.Scan(&w.ID, &w.UserID, &w.ExamID, &w.TopicID, &w.Weight, &meta, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &w.Meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	return w, nil
}
