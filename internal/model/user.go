package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the candidate identity attempts belong to. Authentication and
// account management are external; this service only checks ownership.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
