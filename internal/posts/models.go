package posts

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog entry. The owner id is kept server-side only.
type Post struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"-"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// NewPost is the body of POST /posts.
type NewPost struct {
	Title string `json:"title" binding:"required,max=255"`
	Body  string `json:"body" binding:"required"`
}

// Patch carries only the fields to change on PUT /posts/:id.
type Patch struct {
	Title *string `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Body  *string `json:"body,omitempty" binding:"omitempty,min=1"`
}

// MessageResponse is returned by endpoints with nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}
