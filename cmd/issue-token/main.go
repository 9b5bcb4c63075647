package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/service"
)

// Issues a signed JWT for a user id. Handy for curl sessions against a
// local server without going through an external identity provider.
func main() {
	var userIDStr string
	flag.StringVar(&userIDStr, "user", "", "User ID (uuid) to issue the token for")
	flag.Parse()

	if userIDStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: issue-token -user <uuid>")
		os.Exit(1)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user id: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	token, err := authService.GenerateToken(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
