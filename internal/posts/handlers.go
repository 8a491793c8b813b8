package posts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inkwell/internal/apperror"
	"inkwell/internal/session"
)

// PostService is implemented by *Service.
type PostService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input NewPost) (*Post, error)
	Get(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error)
	Update(ctx context.Context, ownerID, postID uuid.UUID, patch Patch) (*Post, error)
	Delete(ctx context.Context, ownerID, postID uuid.UUID) error
	Publish(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Post, error)
	ListPublished(ctx context.Context) ([]Post, error)
}

// Handler handles HTTP requests for posts
type Handler struct {
	service PostService
}

func NewHandler(service PostService) *Handler {
	return &Handler{service: service}
}

// ListPosts handles GET /posts
func (h *Handler) ListPosts(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	posts, err := h.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// ListPublished handles GET /posts/published
func (h *Handler) ListPublished(c *gin.Context) {
	posts, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// CreatePost handles POST /posts
func (h *Handler) CreatePost(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req NewPost
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.Validation("Invalid request body: "+err.Error()))
		return
	}

	post, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetPost handles GET /posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	ownerID, postID, ok := ownedPostParams(c)
	if !ok {
		return
	}

	post, err := h.service.Get(c.Request.Context(), ownerID, postID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// UpdatePost handles PUT /posts/:id
func (h *Handler) UpdatePost(c *gin.Context) {
	ownerID, postID, ok := ownedPostParams(c)
	if !ok {
		return
	}

	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, apperror.Validation("Invalid request body: "+err.Error()))
		return
	}

	post, err := h.service.Update(c.Request.Context(), ownerID, postID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /posts/:id
func (h *Handler) DeletePost(c *gin.Context) {
	ownerID, postID, ok := ownedPostParams(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), ownerID, postID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

// PublishPost handles PUT /posts/publish/:id
func (h *Handler) PublishPost(c *gin.Context) {
	ownerID, postID, ok := ownedPostParams(c)
	if !ok {
		return
	}

	post, err := h.service.Publish(c.Request.Context(), ownerID, postID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := session.UserID(c)
	if !ok {
		respondError(c, apperror.Unauthorized("Unauthorized"))
	}
	return userID, ok
}

// ownedPostParams returns the caller and the :id path parameter. A malformed
// id cannot name any post, so it is reported as not found.
func ownedPostParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("Post"))
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, postID, true
}

func respondError(c *gin.Context, err error) {
	status, body := apperror.ToResponse(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Post request failed",
			"error", err,
			"path", c.FullPath(),
			"request_id", c.GetString("request_id"),
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
