package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. PasswordHash never leaves the process.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// Credentials is the body of /register, /sign-in and POST /users.
type Credentials struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

// Patch carries only the fields to change on PUT /users.
type Patch struct {
	Email    *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=1,max=72"`
}

// MessageResponse is returned by endpoints with nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}
