package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/prepdeck/prepdeck-backend/internal/response"
	"github.com/prepdeck/prepdeck-backend/internal/service"
)

// WeakAreaHandler handles weakness weight read endpoints.
type WeakAreaHandler struct {
	weakAreaService *service.WeakAreaService
}

// NewWeakAreaHandler creates a new WeakAreaHandler.
func NewWeakAreaHandler(weakAreaService *service.WeakAreaService) *WeakAreaHandler {
	return &WeakAreaHandler{weakAreaService: weakAreaService}
}

// ListWeakAreas godoc
// GET /api/v1/exams/:exam_id/weak-areas
// Returns the caller's own per-topic weights for one exam, weakest first.
func (h *WeakAreaHandler) ListWeakAreas(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	areas, err := h.weakAreaService.ListForExam(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"weak_areas": areas})
}
