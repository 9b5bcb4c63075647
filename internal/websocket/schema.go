package websocket

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// GradedEvent is pushed to monitor clients whenever an attempt on the
// watched exam is graded. It mirrors the payload published on the exam's
// monitor channel at submit time.
type GradedEvent struct {
	Event        Event   `json:"event"`
	AttemptID    string  `json:"attempt_id"`
	UserID       string  `json:"user_id"`
	ExamID       string  `json:"exam_id"`
	Score        float64 `json:"score"`
	CorrectCount int     `json:"correct_count"`
	Total        int     `json:"total"`
	SubmittedAt  string  `json:"submitted_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
