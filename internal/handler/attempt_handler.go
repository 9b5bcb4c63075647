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

// AttemptHandler handles attempt lifecycle and grading endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	gradingService *service.GradingService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, gradingService *service.GradingService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		gradingService: gradingService,
	}
}

// StartAttempt godoc
// POST /api/v1/attempts/start
// Opens a new attempt, freezing the provided question bundle.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), claims.UserID, req.ExamID, req.QuizPayload)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.Fail(c, http.StatusBadRequest, response.ErrEmptyBundle)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt_id": attempt.ID,
		"started_at": attempt.StartedAt,
	})
}

// SubmitAttempt godoc
// POST /api/v1/attempts/submit
// Grades an attempt exactly once. A duplicate submit gets 409; when the
// winning result is still cached it is attached so retries can surface the
// original outcome.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.gradingService.Submit(c.Request.Context(), req.AttemptID, claims.UserID, req.Answers, req.DurationSec)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotAttemptOwner)
		case errors.Is(err, service.ErrAlreadySubmitted):
			if cached, ok := h.gradingService.CachedResult(c.Request.Context(), req.AttemptID); ok {
				response.FailWithData(c, http.StatusConflict, response.ErrAlreadySubmitted, gin.H{"result": cached})
				return
			}
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrInvalidInput):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidSnapshot)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetAttempt godoc
// GET /api/v1/attempts/:attempt_id
// Owner-only read; a non-owner gets 404, never another user's attempt.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetAttemptAnswers godoc
// GET /api/v1/attempts/:attempt_id/answers
// Owner-only review of the graded answer records, including the per-answer
// result snapshot with the correct option.
func (h *AttemptHandler) GetAttemptAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.attemptService.ListAnswers(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}
