package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is the persisted record of one graded answer. Rows are written
// exactly once inside the submit transaction and never mutated.
type Answer struct {
	ID                uuid.UUID      `json:"id"`
	AttemptID         uuid.UUID      `json:"attempt_id"`
	UserID            uuid.UUID      `json:"user_id"`
	QuestionID        *string        `json:"question_id,omitempty"`
	QuestionVersionID *string        `json:"question_version_id,omitempty"`
	SelectedOptionID  *string        `json:"selected_option_id,omitempty"`
	IsCorrect         bool           `json:"is_correct"`
	Selected          ResultSnapshot `json:"selected_snapshot"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ResultSnapshot is a small denormalized result blob stored next to each
// answer so audit/UI reads never rejoin question snapshots. Unmatched marks
// answers that resolved to no option and were graded incorrect by policy.
type ResultSnapshot struct {
	SelectedText      *string `json:"selected_text"`
	CorrectOptionID   *string `json:"correct_option_id"`
	CorrectOptionText *string `json:"correct_option_text"`
	Unmatched         bool    `json:"unmatched,omitempty"`
}
