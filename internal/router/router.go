package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/handler"
	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/prepdeck/prepdeck-backend/internal/response"
	"github.com/prepdeck/prepdeck-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt  *handler.AttemptHandler
	Question *handler.QuestionHandler
	WeakArea *handler.WeakAreaHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Duplicate submits are already safe; the limiter only tames
	// misbehaving clients hammering the write endpoints.
	submitLimiter := middleware.NewRateLimiter(cfg.SubmitRatePerMin, time.Minute)

	// ─── Authenticated API ─────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireUserJWT(authService))
	{
		attempts := api.Group("/attempts")
		{
			attempts.POST("/start", submitLimiter.Middleware(), handlers.Attempt.StartAttempt)
			attempts.POST("/submit", submitLimiter.Middleware(), handlers.Attempt.SubmitAttempt)
			attempts.GET("/:attempt_id", handlers.Attempt.GetAttempt)
			attempts.GET("/:attempt_id/answers", handlers.Attempt.GetAttemptAnswers)
		}

		questions := api.Group("/questions")
		{
			questions.POST("", handlers.Question.CreateQuestion)
			questions.PUT("/:question_id", handlers.Question.UpdateQuestion)
			questions.GET("/:question_id/snapshot", handlers.Question.GetSnapshot)
		}

		api.GET("/exams/:exam_id/weak-areas", handlers.WeakArea.ListWeakAreas)
	}

	// ─── WebSocket (token via query param) ─────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireUserWSAuth(authService))
	{
		wsGroup.GET("/exams/:exam_id/monitor", handlers.WS.ExamMonitorStream)
	}

	return router
}
