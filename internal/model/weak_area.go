package model

import (
	"time"

	"github.com/google/uuid"
)

// WeakArea is the rolling per-topic skill estimate for one candidate on one
// exam. Weight is in [0,1]; higher means weaker. Rows are created on the
// first graded attempt touching the topic and folded on every later one.
type WeakArea struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	ExamID    uuid.UUID    `json:"exam_id"`
	TopicID   string       `json:"topic_id"`
	Weight    float64      `json:"weight"`
	Meta      WeakAreaMeta `json:"meta"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// WeakAreaMeta is best-effort bookkeeping folded alongside the weight.
// None of it is required for the correctness of Weight itself.
type WeakAreaMeta struct {
	AttemptCount     int         `json:"attempt_count"`
	ConsecutiveWrong int         `json:"consecutive_wrong"`
	AvgTimeMs        *float64    `json:"avg_time_ms"`
	LastSamples      TopicSample `json:"last_samples"`
}

// TopicSample is the per-topic correct/total tally of a single graded
// attempt, the unit that gets folded into a weak area.
type TopicSample struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns correct/total, or 0 for an empty sample.
func (s TopicSample) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// ErrorRate returns 1-accuracy, the quantity folded into the EMA.
func (s TopicSample) ErrorRate() float64 {
	return 1 - s.Accuracy()
}
