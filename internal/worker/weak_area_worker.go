package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	SyncBatchSize    = 50
	SyncBatchTimeout = 2 * time.Second
	SyncPollTimeout  = 1 * time.Second
	summaryTTL       = 24 * time.Hour
)

// WeakAreaSyncWorker refreshes the cached weak-area summaries after graded
// attempts. It drains a redis queue of (user, exam) pairs, bulk-reads the
// current weights from postgres and rewrites the summary keys. Purely a
// cache warmer: reads fail over to postgres regardless.
type WeakAreaSyncWorker struct {
	weakRepo *repository.WeakAreaRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

func NewWeakAreaSyncWorker(weakRepo *repository.WeakAreaRepository, rdb *redis.Client, log zerolog.Logger) *WeakAreaSyncWorker {
	return &WeakAreaSyncWorker{
		weakRepo: weakRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "weak_area_worker").Logger(),
	}
}

type syncPayload struct {
	UserID uuid.UUID `json:"user_id"`
	ExamID uuid.UUID `json:"exam_id"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *WeakAreaSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("WeakAreaSyncWorker started")

	batch := make([]*syncPayload, 0, SyncBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= SyncBatchSize || time.Since(lastFlush) >= SyncBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SyncPollTimeout, config.WorkerKey.WeakAreaSyncQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p syncPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch refresh wrapper
// ----------------------------------------------------------------

func (w *WeakAreaSyncWorker) flushSafe(ctx context.Context, batch []*syncPayload) {
	if len(batch) == 0 {
		return
	}

	pairs := dedupePairs(batch)

	if err := w.bulkRefresh(ctx, pairs); err != nil {
		w.log.Warn().Err(err).Msg("bulk weak-area refresh failed, using fallback")

		for _, p := range pairs {
			if err := w.refreshSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("refreshSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.WeakAreaSyncQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK refresh: one UNNEST query, pipelined cache writes
// ----------------------------------------------------------------

func (w *WeakAreaSyncWorker) bulkRefresh(ctx context.Context, pairs []*syncPayload) error {
	userIDs := make([]uuid.UUID, len(pairs))
	examIDs := make([]uuid.UUID, len(pairs))
	for i, p := range pairs {
		userIDs[i] = p.UserID
		examIDs[i] = p.ExamID
	}

	areas, err := w.weakRepo.ListByPairs(ctx, userIDs, examIDs)
	if err != nil {
		return err
	}

	grouped := make(map[syncPayload][]model.WeakArea, len(pairs))
	for _, a := range areas {
		k := syncPayload{UserID: a.UserID, ExamID: a.ExamID}
		grouped[k] = append(grouped[k], a)
	}

	pipe := w.rdb.Pipeline()
	for _, p := range pairs {
		list := grouped[*p]
		if list == nil {
			list = []model.WeakArea{}
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return err
		}
		key := config.CacheKey.WeakAreaSummaryKey(p.UserID.String(), p.ExamID.String())
		pipe.Set(ctx, key, raw, summaryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single refresh
// ----------------------------------------------------------------

func (w *WeakAreaSyncWorker) refreshSingle(ctx context.Context, p *syncPayload) error {
	areas, err := w.weakRepo.ListByUserAndExam(ctx, p.UserID, p.ExamID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(areas)
	if err != nil {
		return err
	}
	key := config.CacheKey.WeakAreaSummaryKey(p.UserID.String(), p.ExamID.String())
	return w.rdb.Set(ctx, key, raw, summaryTTL).Err()
}

func dedupePairs(batch []*syncPayload) []*syncPayload {
	seen := make(map[syncPayload]struct{}, len(batch))
	pairs := make([]*syncPayload, 0, len(batch))
	for _, p := range batch {
		if _, ok := seen[*p]; ok {
			continue
		}
		seen[*p] = struct{}{}
		pairs = append(pairs, p)
	}
	return pairs
}
