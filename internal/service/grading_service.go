package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// GradingService grades submitted attempts against their frozen snapshot
// bundle and folds per-topic error rates into weakness weights. All writes
// of one submit happen in a single transaction guarded by the conditional
// open→graded transition, so at most one submit per attempt ever lands.
type GradingService struct {
	pool        *pgxpool.Pool
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	weakRepo    *repository.WeakAreaRepository
	rdb         *redis.Client
	cfg         *config.Config
	log         zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	pool *pgxpool.Pool,
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	weakRepo *repository.WeakAreaRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		pool:        pool,
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		weakRepo:    weakRepo,
		rdb:         rdb,
		cfg:         cfg,
		log:         log.With().Str("component", "grading_service").Logger(),
	}
}

// Submit grades an attempt exactly once. Preconditions map to the error
// taxonomy: missing attempt → ErrNotFound, already graded → ErrAlreadySubmitted,
// caller is not the owner → ErrNotOwner, empty answers or malformed snapshot
// → ErrInvalidInput. A lost concurrent race also surfaces ErrAlreadySubmitted
// and leaves no writes behind.
func (s *GradingService) Submit(ctx context.Context, attemptID, callerID uuid.UUID, answers []model.SubmitAnswer, durationSec *int) (*model.SubmitResult, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers provided", ErrInvalidInput)
	}

	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	// Ownership is checked before anything else so a non-owner learns nothing
	// about the attempt's state.
	if attempt.UserID != callerID {
		return nil, ErrNotOwner
	}
	if attempt.Graded() {
		return nil, ErrAlreadySubmitted
	}
	if len(attempt.Snapshot.Questions) == 0 {
		return nil, fmt.Errorf("%w: attempt snapshot has no questions", ErrInvalidInput)
	}

	now := time.Now()
	records, topicStats, correctCount := gradeAnswers(attempt, answers, now)
	total := len(records)
	score := float64(correctCount) / float64(total) * 100

	result, err := s.commit(ctx, attempt, records, topicStats, now, durationSec, score, correctCount, true)
	if err != nil {
		if isTaxonomy(err) {
			return nil, err
		}
		// Environmental failure on the bulk path. Re-run the whole unit in a
		// fresh transaction with per-row writes; atomicity semantics are
		// identical, only the write strategy differs.
		s.log.Warn().Err(err).
			Str("attempt_id", attemptID.String()).
			Msg("Bulk submit path failed, retrying per-row")
		result, err = s.commit(ctx, attempt, records, topicStats, now, durationSec, score, correctCount, false)
		if err != nil {
			if isTaxonomy(err) {
				return nil, err
			}
			s.log.Error().Err(err).
				Str("attempt_id", attemptID.String()).
				Str("user_id", callerID.String()).
				Msg("Submit failed on both write paths")
			return nil, fmt.Errorf("submit attempt: %w", err)
		}
	}

	s.afterCommit(ctx, result)

	return result, nil
}

// commit runs one failure-atomic unit: answer writes, the conditional
// transition, and the weak-area folds. Everything rolls back together; in
// particular a lost transition race discards the answer writes.
func (s *GradingService) commit(ctx context.Context, attempt *model.Attempt, records []model.Answer, topicStats map[string]model.TopicSample, now time.Time, durationSec *int, score float64, correctCount int, bulk bool) (*model.SubmitResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if bulk {
		if err := s.answerRepo.BulkInsertTx(ctx, tx, records); err != nil {
			return nil, fmt.Errorf("bulk insert answers: %w", err)
		}
	} else {
		for i := range records {
			if err := s.answerRepo.InsertTx(ctx, tx, &records[i]); err != nil {
				return nil, fmt.Errorf("insert answer: %w", err)
			}
		}
	}

	won, err := s.attemptRepo.MarkGradedTx(ctx, tx, attempt.ID, now, durationSec, score)
	if err != nil {
		return nil, fmt.Errorf("mark graded: %w", err)
	}
	if !won {
		// Zero rows affected proves a concurrent submit already graded this
		// attempt. The rollback discards this racer's answer writes.
		return nil, ErrAlreadySubmitted
	}

	if err := s.foldWeakAreas(ctx, tx, attempt, topicStats, durationSec, len(records)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	graded := *attempt
	graded.SubmittedAt = &now
	graded.DurationSec = durationSec
	graded.Score = &score

	return &model.SubmitResult{
		Attempt:      &graded,
		Score:        score,
		CorrectCount: correctCount,
		Total:        len(records),
	}, nil
}

// foldWeakAreas applies the EMA update for every topic touched by this
// attempt, inside the submit transaction. Topics are processed in sorted
// order so concurrent submits for different attempts lock rows in a stable
// order.
func (s *GradingService) foldWeakAreas(ctx context.Context, tx pgx.Tx, attempt *model.Attempt, topicStats map[string]model.TopicSample, durationSec *int, totalAnswers int) error {
	topicIDs := make([]string, 0, len(topicStats))
	for topicID := range topicStats {
		topicIDs = append(topicIDs, topicID)
	}
	sort.Strings(topicIDs)

	avgTimeMs := perAnswerTimeMs(durationSec, totalAnswers)

	for _, topicID := range topicIDs {
		sample := topicStats[topicID]

		existing, err := s.weakRepo.GetForTopicTx(ctx, tx, attempt.UserID, attempt.ExamID, topicID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("get weak area %s: %w", topicID, err)
			}
			seeded := seedWeakArea(attempt.UserID, attempt.ExamID, topicID, sample, avgTimeMs)
			if err := s.weakRepo.InsertTx(ctx, tx, seeded); err != nil {
				return fmt.Errorf("seed weak area %s: %w", topicID, err)
			}
			continue
		}

		foldWeakArea(existing, sample, avgTimeMs)
		if err := s.weakRepo.UpdateTx(ctx, tx, existing); err != nil {
			return fmt.Errorf("update weak area %s: %w", topicID, err)
		}
	}
	return nil
}

// afterCommit runs the best-effort side effects of a graded submit: result
// caching for duplicate-request retries, the monitor event, and the
// weak-area summary refresh queue. None of them affect correctness.
func (s *GradingService) afterCommit(ctx context.Context, result *model.SubmitResult) {
	// Detached from the request context: a client that disconnects right
	// after commit is exactly the one that will retry, and its 409 must
	// still find the cached result.
	ctx = context.WithoutCancel(ctx)
	attempt := result.Attempt

	if raw, err := json.Marshal(result); err == nil {
		key := config.CacheKey.AttemptResultKey(attempt.ID.String())
		if err := s.rdb.Set(ctx, key, raw, s.cfg.ResultCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Result cache write failed")
		}
	}

	event := map[string]any{
		"attempt_id":    attempt.ID,
		"user_id":       attempt.UserID,
		"exam_id":       attempt.ExamID,
		"score":         result.Score,
		"correct_count": result.CorrectCount,
		"total":         result.Total,
		"submitted_at":  attempt.SubmittedAt,
	}
	if raw, err := json.Marshal(event); err == nil {
		channel := config.CacheKey.ExamMonitorChannel(attempt.ExamID.String())
		if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", attempt.ExamID.String()).Msg("Monitor publish failed")
		}
	}

	sync := map[string]any{"user_id": attempt.UserID, "exam_id": attempt.ExamID}
	if raw, err := json.Marshal(sync); err == nil {
		if err := s.rdb.RPush(ctx, config.WorkerKey.WeakAreaSyncQueue, raw).Err(); err != nil {
			s.log.Warn().Err(err).Str("user_id", attempt.UserID.String()).Msg("Weak-area sync enqueue failed")
		}
	}
}

// CachedResult returns the winning submit result for an attempt when it is
// still cached, so duplicate submits can surface the original outcome.
func (s *GradingService) CachedResult(ctx context.Context, attemptID uuid.UUID) (*model.SubmitResult, bool) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptResultKey(attemptID.String())).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Result cache read failed")
		}
		return nil, false
	}
	var result model.SubmitResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	return &result, true
}

// perAnswerTimeMs spreads the reported attempt duration evenly across the
// answers to produce a per-sample timing estimate for the meta fold.
func perAnswerTimeMs(durationSec *int, totalAnswers int) *float64 {
	if durationSec == nil || totalAnswers == 0 {
		return nil
	}
	ms := float64(*durationSec) * 1000 / float64(totalAnswers)
	return &ms
}

// isTaxonomy reports whether err is one of the caller-facing error kinds
// that must never trigger the per-row retry path.
func isTaxonomy(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrInvalidInput)
}
