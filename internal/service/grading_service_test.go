package service

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// captureHook records every redis command together with the cancellation
// state of the context it was issued under, and short-circuits the command
// so no connection is ever dialed.
type captureHook struct {
	mu      sync.Mutex
	names   []string
	ctxErrs []error
}

func (h *captureHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, nil
	}
}

func (h *captureHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		h.names = append(h.names, cmd.Name())
		h.ctxErrs = append(h.ctxErrs, ctx.Err())
		h.mu.Unlock()
		return nil
	}
}

func (h *captureHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.mu.Lock()
		for _, cmd := range cmds {
			h.names = append(h.names, cmd.Name())
			h.ctxErrs = append(h.ctxErrs, ctx.Err())
		}
		h.mu.Unlock()
		return nil
	}
}

// The post-commit side effects must outlive the request context: the cache
// write backing the duplicate-submit 409 has to land even when the client
// disconnected the moment the transaction committed.
func TestAfterCommitOutlivesRequestCancel(t *testing.T) {
	hook := &captureHook{}
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	rdb.AddHook(hook)

	now := time.Now()
	score := 50.0
	attempt := &model.Attempt{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ExamID:      uuid.New(),
		SubmittedAt: &now,
		Score:       &score,
	}
	result := &model.SubmitResult{
		Attempt:      attempt,
		Score:        score,
		CorrectCount: 1,
		Total:        2,
	}

	s := &GradingService{
		rdb: rdb,
		cfg: &config.Config{ResultCacheTTL: time.Minute},
		log: zerolog.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the client is already gone

	s.afterCommit(ctx, result)

	hook.mu.Lock()
	defer hook.mu.Unlock()

	want := map[string]bool{"set": false, "publish": false, "rpush": false}
	for i, name := range hook.names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
		if hook.ctxErrs[i] != nil {
			t.Errorf("command %q saw canceled context: %v", name, hook.ctxErrs[i])
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("command %q was never issued", name)
		}
	}
}
