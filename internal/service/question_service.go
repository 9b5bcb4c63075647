package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuestionService is the content versioning store plus its authoring
// surface. Every write to a live question appends an immutable snapshot
// version in the same transaction; snapshots are never edited or deleted.
type QuestionService struct {
	pool         *pgxpool.Pool
	questionRepo *repository.QuestionRepository
	snapshotRepo *repository.SnapshotRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	pool *pgxpool.Pool,
	questionRepo *repository.QuestionRepository,
	snapshotRepo *repository.SnapshotRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		pool:         pool,
		questionRepo: questionRepo,
		snapshotRepo: snapshotRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// Create authors a new question with its options and snapshot version 1 in
// one transaction.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, *model.QuestionSnapshot, error) {
	question := &model.Question{
		TopicID: req.TopicID,
		Text:    req.Text,
		Options: optionsFromInput(req.Options),
	}

	var snapshot *model.QuestionSnapshot
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.questionRepo.CreateTx(ctx, tx, question); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		snapshot = snapshotFromQuestion(question)
		if err := s.snapshotRepo.Insert(ctx, tx, snapshot); err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.cacheLatest(ctx, snapshot)
	return question, snapshot, nil
}

// Update edits a live question's text and/or options and appends the next
// snapshot version. Existing snapshots are untouched, so attempts already
// graded against them keep their frozen view.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, *model.QuestionSnapshot, error) {
	question, err := s.questionRepo.GetWithOptions(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get question: %w", err)
	}

	var snapshot *model.QuestionSnapshot
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if req.Text != nil {
			question.Text = *req.Text
			if err := s.questionRepo.UpdateTextTx(ctx, tx, id, question.Text); err != nil {
				return fmt.Errorf("update text: %w", err)
			}
		}
		if len(req.Options) > 0 {
			question.Options = optionsFromInput(req.Options)
			if err := s.questionRepo.ReplaceOptionsTx(ctx, tx, question); err != nil {
				return fmt.Errorf("replace options: %w", err)
			}
		}
		snapshot = snapshotFromQuestion(question)
		if err := s.snapshotRepo.Insert(ctx, tx, snapshot); err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.cacheLatest(ctx, snapshot)
	return question, snapshot, nil
}

// LatestSnapshot returns the highest-version snapshot of a question, or
// ErrNotFound if the question was never snapshotted.
func (s *QuestionService) LatestSnapshot(ctx context.Context, questionID uuid.UUID) (*model.QuestionSnapshot, error) {
	snapshot, err := s.snapshotRepo.LatestByQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snapshot, nil
}

// EnsureSnapshot returns the latest snapshot, creating version 1 from the
// live question when none exists yet. Concurrent calls may race and append
// identical content at adjacent versions; that duplication is tolerated
// rather than serialized.
func (s *QuestionService) EnsureSnapshot(ctx context.Context, questionID uuid.UUID) (*model.QuestionSnapshot, error) {
	// Fast path: cached latest snapshot id.
	key := config.CacheKey.SnapshotLatestKey(questionID.String())
	if cachedID, err := s.rdb.Get(ctx, key).Result(); err == nil {
		if id, parseErr := uuid.Parse(cachedID); parseErr == nil {
			if snapshot, getErr := s.snapshotRepo.GetByID(ctx, id); getErr == nil {
				return snapshot, nil
			}
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Snapshot cache read failed")
	}

	snapshot, err := s.snapshotRepo.LatestByQuestion(ctx, questionID)
	if err == nil {
		s.cacheLatest(ctx, snapshot)
		return snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	// Never snapshotted: freeze the live question now.
	question, err := s.questionRepo.GetWithOptions(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	snapshot = snapshotFromQuestion(question)
	if err := s.snapshotRepo.Insert(ctx, s.pool, snapshot); err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	s.log.Info().
		Str("question_id", questionID.String()).
		Int("version", snapshot.VersionNumber).
		Msg("Snapshot created lazily")

	s.cacheLatest(ctx, snapshot)
	return snapshot, nil
}

func (s *QuestionService) cacheLatest(ctx context.Context, snapshot *model.QuestionSnapshot) {
	if s.rdb == nil {
		return // caching disabled (CLI usage)
	}
	key := config.CacheKey.SnapshotLatestKey(snapshot.QuestionID.String())
	if err := s.rdb.Set(ctx, key, snapshot.ID.String(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot cache write failed")
	}
}

func optionsFromInput(inputs []model.QuestionOptionInput) []model.Option {
	options := make([]model.Option, len(inputs))
	for i, in := range inputs {
		options[i] = model.Option{Text: in.Text, IsCorrect: in.IsCorrect, Position: i}
	}
	return options
}

// snapshotFromQuestion freezes a live question's current state into a new
// snapshot value. The caller persists it to assign id and version number.
func snapshotFromQuestion(q *model.Question) *model.QuestionSnapshot {
	options := make([]model.SnapshotOption, len(q.Options))
	for i, o := range q.Options {
		options[i] = model.SnapshotOption{
			ID:        o.ID.String(),
			Text:      o.Text,
			IsCorrect: o.IsCorrect,
		}
	}
	return &model.QuestionSnapshot{
		QuestionID: q.ID,
		Text:       q.Text,
		Options:    options,
	}
}
