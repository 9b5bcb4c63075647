package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/database"
	"github.com/prepdeck/prepdeck-backend/internal/logger"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
	"github.com/prepdeck/prepdeck-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Seeds a demo candidate, one exam with two topics and four questions
// (snapshot version 1 each), so the API can be exercised end to end.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)
	questionService := service.NewQuestionService(pool, questionRepo, snapshotRepo, nil, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Seed Demo Data ===")

	fmt.Print("Demo user email (default demo@prepdeck.local): ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		email = "demo@prepdeck.local"
	}

	fmt.Print("Demo user password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Demo User ─────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         "Demo Candidate",
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo user")
	}
	// Re-read in case the user already existed.
	if err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&user.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to read demo user")
	}
	fmt.Printf("User: %s (%s)\n", user.Email, user.ID)

	// ─── Demo Exam + Topics ────────────────────────────────────────────
	exam := &model.Exam{ID: uuid.New(), Name: "Demo Placement Exam"}
	if _, err := pool.Exec(ctx,
		`INSERT INTO exams (id, name) VALUES ($1, $2)`,
		exam.ID, exam.Name); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Exam: %s\n", exam.ID)

	topics := make(map[string]model.Topic)
	for _, name := range []string{"Algebra", "Geometry"} {
		topic := model.Topic{ID: uuid.New(), ExamID: exam.ID, Name: name}
		if _, err := pool.Exec(ctx,
			`INSERT INTO topics (id, exam_id, name) VALUES ($1, $2, $3)`,
			topic.ID, topic.ExamID, topic.Name); err != nil {
			log.Fatal().Err(err).Msg("Failed to create topic")
		}
		topics[name] = topic
		fmt.Printf("Topic %s: %s\n", topic.Name, topic.ID)
	}

	// ─── Demo Questions (snapshot v1 created in the same tx) ───────────
	seed := []struct {
		topic   string
		text    string
		correct string
		wrong   []string
	}{
		{"Algebra", "What is 2x when x = 4?", "8", []string{"6", "16", "2"}},
		{"Algebra", "Solve x + 3 = 10.", "7", []string{"13", "3", "10"}},
		{"Geometry", "How many sides does a hexagon have?", "6", []string{"5", "7", "8"}},
		{"Geometry", "Sum of interior angles of a triangle?", "180", []string{"90", "270", "360"}},
	}

	for _, q := range seed {
		req := &model.CreateQuestionRequest{
			TopicID: topics[q.topic].ID,
			Text:    q.text,
			Options: buildOptions(q.correct, q.wrong),
		}
		question, snapshot, err := questionService.Create(ctx, req)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
		fmt.Printf("Question %s (snapshot v%d: %s)\n", question.ID, snapshot.VersionNumber, snapshot.ID)
	}

	fmt.Println("Done.")
}

func buildOptions(correct string, wrong []string) []model.QuestionOptionInput {
	opts := []model.QuestionOptionInput{{Text: correct, IsCorrect: true}}
	for _, w := range wrong {
		opts = append(opts, model.QuestionOptionInput{Text: w})
	}
	return opts
}
