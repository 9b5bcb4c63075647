package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptResultKey returns the cache key holding the winning submit result
// for an attempt. Lets duplicate submits surface the original result.
func (r *CacheKeyStruct) AttemptResultKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:result", attemptID)
}

// WeakAreaSummaryKey returns the cache key for a user's per-exam weak-area
// summary, refreshed by the sync worker.
func (r *CacheKeyStruct) WeakAreaSummaryKey(userID, examID string) string {
	return fmt.Sprintf("user:%s:exam:%s:weak_areas", userID, examID)
}

// SnapshotLatestKey returns the cache key for a question's latest snapshot id.
func (r *CacheKeyStruct) SnapshotLatestKey(questionID string) string {
	return fmt.Sprintf("question:%s:latest_snapshot", questionID)
}

// ExamMonitorChannel returns the Redis PubSub channel carrying graded-attempt
// events for an exam's live monitor.
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
