package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an operator account (admin/review screens)
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Name         string    `json:"name"`
	IsReviewer   bool      `json:"is_reviewer"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
