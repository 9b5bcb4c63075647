package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a live, editable question. Grading never reads it directly;
// it is only the source material for immutable snapshots.
type Question struct {
	ID        uuid.UUID `json:"id"`
	TopicID   uuid.UUID `json:"topic_id"`
	Text      string    `json:"text"`
	Options   []Option  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Option is a live answer option belonging to a question.
type Option struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
	Position  int       `json:"position"`
}

// QuestionSnapshot is an immutable frozen copy of a question at a version
// number. Versions start at 1 per question and only ever grow; a correction
// to the live question appends the next version, never edits an old one.
type QuestionSnapshot struct {
	ID            uuid.UUID        `json:"id"`
	QuestionID    uuid.UUID        `json:"question_id"`
	VersionNumber int              `json:"version_number"`
	Text          string           `json:"text"`
	Options       []SnapshotOption `json:"options"`
	Explanation   *string          `json:"explanation,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// SnapshotOption is a frozen option inside a question snapshot.
type SnapshotOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionRequest is the payload for authoring a new question.
// Snapshot version 1 is created in the same transaction.
type CreateQuestionRequest struct {
	TopicID uuid.UUID             `json:"topic_id" binding:"required"`
	Text    string                `json:"text" binding:"required,min=1,max=2000"`
	Options []QuestionOptionInput `json:"options" binding:"required,min=2,dive"`
}

// UpdateQuestionRequest is the payload for editing a question. Any edit
// appends the next snapshot version.
type UpdateQuestionRequest struct {
	Text    *string               `json:"text" binding:"omitempty,min=1,max=2000"`
	Options []QuestionOptionInput `json:"options" binding:"omitempty,min=2,dive"`
}

// QuestionOptionInput is one option in an authoring payload.
type QuestionOptionInput struct {
	Text      string `json:"text" binding:"required,min=1,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}
