package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/response"
	"github.com/prepdeck/prepdeck-backend/internal/service"
	"github.com/prepdeck/prepdeck-backend/internal/validator"
)

// QuestionHandler handles question authoring and snapshot endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// CreateQuestion godoc
// POST /api/v1/questions
// Creates a question with its options and snapshot version 1.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	if middleware.GetClaims(c) == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, snapshot, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"question": question,
		"snapshot": snapshot,
	})
}

// UpdateQuestion godoc
// PUT /api/v1/questions/:question_id
// Edits a question and appends the next snapshot version.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	if middleware.GetClaims(c) == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, snapshot, err := h.questionService.Update(c.Request.Context(), questionID, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"question": question,
		"snapshot": snapshot,
	})
}

// GetSnapshot godoc
// GET /api/v1/questions/:question_id/snapshot
// Returns the latest snapshot, freezing one lazily when none exists.
func (h *QuestionHandler) GetSnapshot(c *gin.Context) {
	if middleware.GetClaims(c) == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snapshot, err := h.questionService.EnsureSnapshot(c.Request.Context(), questionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snapshot})
}
