package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt represents one candidate's run through a fixed question set.
// The snapshot bundle is written once at start and is the sole source of
// truth for grading; later edits to live questions never affect it.
type Attempt struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	ExamID      uuid.UUID      `json:"exam_id"`
	Snapshot    SnapshotBundle `json:"raw_snapshot"`
	StartedAt   time.Time      `json:"started_at"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	DurationSec *int           `json:"duration_sec,omitempty"`
	Score       *float64       `json:"score,omitempty"`
}

// Graded reports whether the attempt has reached its terminal state.
func (a *Attempt) Graded() bool {
	return a.SubmittedAt != nil
}

// SnapshotBundle is the frozen question set embedded in an attempt.
type SnapshotBundle struct {
	Questions []BundleQuestion `json:"questions"`
}

// BundleQuestion is one frozen question entry inside a bundle. The ids are
// carried as opaque strings: they reference a live question, a snapshot
// version and a topic, but the bundle stays valid even if those rows move.
type BundleQuestion struct {
	QuestionID string         `json:"question_id,omitempty"`
	SnapshotID string         `json:"question_version_id,omitempty"`
	TopicID    string         `json:"topic_id,omitempty"`
	Text       string         `json:"text"`
	Options    []BundleOption `json:"options"`
}

// BundleOption is an option inside a bundle entry. IsCorrect is a pointer
// because the flag may be withheld from payloads shown to candidates.
type BundleOption struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// Correct reports the correctness flag, treating a withheld flag as false.
func (o *BundleOption) Correct() bool {
	return o.IsCorrect != nil && *o.IsCorrect
}

// StartAttemptRequest is the payload for starting a new attempt.
type StartAttemptRequest struct {
	ExamID      uuid.UUID      `json:"exam_id" binding:"required"`
	QuizPayload SnapshotBundle `json:"quiz_payload" binding:"required"`
}

// SubmitAnswer is one submitted answer. Either question_id or
// question_version_id locates the bundle entry; either selected_option_id
// or selected_text identifies the chosen option.
type SubmitAnswer struct {
	QuestionID        string `json:"question_id,omitempty"`
	QuestionVersionID string `json:"question_version_id,omitempty"`
	SelectedOptionID  string `json:"selected_option_id,omitempty"`
	SelectedText      string `json:"selected_text,omitempty"`
}

// SubmitAttemptRequest is the payload for submitting a completed attempt.
type SubmitAttemptRequest struct {
	AttemptID   uuid.UUID      `json:"attempt_id" binding:"required"`
	Answers     []SubmitAnswer `json:"answers" binding:"required,min=1"`
	DurationSec *int           `json:"duration_sec" binding:"omitempty,min=0"`
}

// SubmitResult is returned from a successful submit and cached for
// duplicate-request retries.
type SubmitResult struct {
	Attempt      *Attempt `json:"attempt"`
	Score        float64  `json:"score"`
	CorrectCount int      `json:"correct_count"`
	Total        int      `json:"total"`
}
