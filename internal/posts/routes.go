package posts

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the post endpoints. Only the published feed is
// public.
func RegisterRoutes(r gin.IRouter, h *Handler, requireSession gin.HandlerFunc) {
	r.GET("/posts/published", h.ListPublished)

	authed := r.Group("/posts", requireSession)
	{
		authed.GET("", h.ListPosts)
		authed.POST("", h.CreatePost)
		authed.GET("/:id", h.GetPost)
		authed.PUT("/:id", h.UpdatePost)
		authed.DELETE("/:id", h.DeletePost)
		authed.PUT("/publish/:id", h.PublishPost)
	}
}
