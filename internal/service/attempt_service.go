package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AttemptService owns the attempt lifecycle: creation in the open state and
// owner-scoped reads. The open→graded transition belongs to GradingService.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attemptRepo *repository.AttemptRepository, answerRepo *repository.AnswerRepository, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start validates the snapshot bundle and persists a new open attempt.
// The bundle is write-once: nothing may modify it after this call.
func (s *AttemptService) Start(ctx context.Context, userID, examID uuid.UUID, bundle model.SnapshotBundle) (*model.Attempt, error) {
	if err := ValidateBundle(&bundle); err != nil {
		return nil, err
	}

	attempt := &model.Attempt{
		UserID:   userID,
		ExamID:   examID,
		Snapshot: bundle,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("user_id", userID.String()).
		Str("exam_id", examID.String()).
		Int("questions", len(bundle.Questions)).
		Msg("Attempt started")

	return attempt, nil
}

// Get returns an attempt only to its owner. A non-owner receives ErrNotFound
// so the attempt's existence is never leaked.
func (s *AttemptService) Get(ctx context.Context, attemptID, callerID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByIDForUser(ctx, attemptID, callerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// ListAnswers returns the graded answer records of an attempt, owner-only.
// Open attempts have no answer rows yet and yield an empty list.
func (s *AttemptService) ListAnswers(ctx context.Context, attemptID, callerID uuid.UUID) ([]model.Answer, error) {
	if _, err := s.Get(ctx, attemptID, callerID); err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

// ValidateBundle enforces the minimal bundle shape: at least one question,
// each with non-empty text and at least two options.
func ValidateBundle(b *model.SnapshotBundle) error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: bundle has no questions", ErrInvalidInput)
	}
	for i := range b.Questions {
		q := &b.Questions[i]
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has empty text", ErrInvalidInput, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has fewer than two options", ErrInvalidInput, i)
		}
	}
	return nil
}
