package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is a thin reference entity: attempts and weak areas hang off it.
// Exam management itself lives outside this service.
type Exam struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Topic groups questions inside an exam and keys weak-area weights.
type Topic struct {
	ID     uuid.UUID `json:"id"`
	ExamID uuid.UUID `json:"exam_id"`
	Name   string    `json:"name"`
}
