package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// weakAreaAlpha is the fixed EMA smoothing constant: each new per-topic
// error-rate sample contributes 40% of the updated weight.
const weakAreaAlpha = 0.4

// weakAreaSummaryTTL bounds staleness of the cached summary; the sync
// worker refreshes it after every graded attempt.
const weakAreaSummaryTTL = 24 * time.Hour

// WeakAreaService serves per-topic weakness weights. Reads prefer the redis
// summary cache and fail over to postgres, self-healing the cache.
type WeakAreaService struct {
	weakRepo *repository.WeakAreaRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewWeakAreaService creates a new WeakAreaService.
func NewWeakAreaService(weakRepo *repository.WeakAreaRepository, rdb *redis.Client, log zerolog.Logger) *WeakAreaService {
	return &WeakAreaService{
		weakRepo: weakRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "weak_area_service").Logger(),
	}
}

// ListForExam returns the caller's weights for one exam, weakest first.
func (s *WeakAreaService) ListForExam(ctx context.Context, userID, examID uuid.UUID) ([]model.WeakArea, error) {
	key := config.CacheKey.WeakAreaSummaryKey(userID.String(), examID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var areas []model.WeakArea
		if jsonErr := json.Unmarshal([]byte(cached), &areas); jsonErr == nil {
			return areas, nil
		}
		// Corrupt cache entry: fall through to postgres and rewrite it.
		s.log.Warn().Str("key", key).Msg("Discarding malformed weak-area summary cache entry")
	} else if !errors.Is(err, redis.Nil) {
		// Real redis failure: postgres is the source of truth, keep serving.
		s.log.Warn().Err(err).Msg("Weak-area cache read failed, falling back to postgres")
	}

	areas, err := s.weakRepo.ListByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("list weak areas: %w", err)
	}

	// Self-heal so the next read is fast. Best-effort.
	if raw, jsonErr := json.Marshal(areas); jsonErr == nil {
		_ = s.rdb.Set(ctx, key, raw, weakAreaSummaryTTL).Err()
	}

	return areas, nil
}

// seedWeakArea builds the first weight row for a topic from its first
// graded sample. The seed weight is the clamped error rate.
func seedWeakArea(userID, examID uuid.UUID, topicID string, sample model.TopicSample, avgTimeMs *float64) *model.WeakArea {
	consecutiveWrong := 0
	if sample.Correct < sample.Total {
		consecutiveWrong = 1
	}
	return &model.WeakArea{
		UserID:  userID,
		ExamID:  examID,
		TopicID: topicID,
		Weight:  clamp01(sample.ErrorRate()),
		Meta: model.WeakAreaMeta{
			AttemptCount:     1,
			ConsecutiveWrong: consecutiveWrong,
			AvgTimeMs:        avgTimeMs,
			LastSamples:      sample,
		},
	}
}

// foldWeakArea folds a new sample into an existing weight row in place:
// weight' = weight*(1-α) + errorRate*α, plus the meta bookkeeping. The
// result stays in [0,1] because both terms do.
func foldWeakArea(w *model.WeakArea, sample model.TopicSample, avgTimeMs *float64) {
	errorRate := clamp01(sample.ErrorRate())
	w.Weight = clamp01(w.Weight*(1-weakAreaAlpha) + errorRate*weakAreaAlpha)

	prevCount := w.Meta.AttemptCount
	if sample.Total > 0 && sample.Correct < sample.Total {
		w.Meta.ConsecutiveWrong++
	} else {
		w.Meta.ConsecutiveWrong = 0
	}
	if avgTimeMs != nil {
		if w.Meta.AvgTimeMs == nil {
			w.Meta.AvgTimeMs = avgTimeMs
		} else {
			// Unweighted running mean across attempt counts.
			mean := (*w.Meta.AvgTimeMs*float64(prevCount) + *avgTimeMs) / float64(prevCount+1)
			w.Meta.AvgTimeMs = &mean
		}
	}
	w.Meta.AttemptCount = prevCount + 1
	w.Meta.LastSamples = sample
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
