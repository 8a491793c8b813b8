package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"inkwell/internal/apperror"
	"inkwell/internal/posts"
	"inkwell/internal/users"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(s.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
	}))

	r.GET("/", s.welcomeHandler)
	r.GET("/health", s.healthHandler)

	if s.users != nil {
		users.RegisterRoutes(r, s.users, s.requireSession)
	}
	if s.posts != nil {
		posts.RegisterRoutes(r, s.posts, s.requireSession)
	}

	r.NoRoute(func(c *gin.Context) {
		status, body := apperror.ToResponse(apperror.NotFound("Route"))
		c.JSON(status, body)
	})

	return r
}

func (s *Server) welcomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome!")
}

// healthHandler reports 503 when any backing store is down.
func (s *Server) healthHandler(c *gin.Context) {
	ctx := c.Request.Context()
	response := make(map[string]any)
	status := http.StatusOK

	if s.db != nil {
		dbHealth := s.db.Health(ctx)
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		response["database"] = dbHealth
	}

	if s.redis != nil {
		redisHealth := map[string]string{"status": "up"}
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisHealth["status"] = "down"
			redisHealth["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		response["redis"] = redisHealth
	}

	c.JSON(status, response)
}
