package users

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inkwell/internal/apperror"
	"inkwell/internal/session"
)

// Handler handles account HTTP requests.
type Handler struct {
	service Service
	cookies *session.CookieCodec
}

func NewHandler(service Service, cookies *session.CookieCodec) *Handler {
	return &Handler{service: service, cookies: cookies}
}

// Register handles POST /register
func (h *Handler) Register(c *gin.Context) {
	h.create(c, http.StatusOK)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(c *gin.Context) {
	h.create(c, http.StatusCreated)
}

func (h *Handler) create(c *gin.Context, status int) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		respondError(c, apperror.Validation("Invalid request body: "+err.Error()))
		return
	}

	user, err := h.service.Register(c.Request.Context(), creds)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, user)
}

// SignIn handles POST /sign-in
func (h *Handler) SignIn(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		respondError(c, apperror.Validation("Invalid request body: "+err.Error()))
		return
	}

	user, token, err := h.service.SignIn(c.Request.Context(), h.cookies.Read(c), creds)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.cookies.Write(c, token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SignOut handles POST /sign-out
func (h *Handler) SignOut(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), session.Token(c)); err != nil {
		respondError(c, err)
		return
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Successfully signed out"})
}

// WhoAmI handles GET /who-am-i
func (h *Handler) WhoAmI(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.service.WhoAmI(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUser handles PUT /users
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, apperror.Validation("Invalid request body: "+err.Error()))
		return
	}

	user, err := h.service.UpdateSelf(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSelf(c.Request.Context(), userID, session.Token(c)); err != nil {
		respondError(c, err)
		return
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Successfully deleted account"})
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := session.UserID(c)
	if !ok {
		respondError(c, apperror.Unauthorized("Unauthorized"))
	}
	return userID, ok
}

func respondError(c *gin.Context, err error) {
	status, body := apperror.ToResponse(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Account request failed",
			"error", err,
			"path", c.FullPath(),
			"request_id", c.GetString("request_id"),
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
