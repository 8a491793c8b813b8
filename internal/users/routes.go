package users

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the account endpoints. requireSession guards the
// ones acting on the signed-in user.
func RegisterRoutes(r gin.IRouter, h *Handler, requireSession gin.HandlerFunc) {
	r.POST("/register", h.Register)
	r.POST("/sign-in", h.SignIn)
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)

	authed := r.Group("", requireSession)
	authed.GET("/who-am-i", h.WhoAmI)
	authed.POST("/sign-out", h.SignOut)
	authed.PUT("/users", h.UpdateUser)
	authed.DELETE("/users", h.DeleteUser)
}
