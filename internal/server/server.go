// Package server assembles the gin router and the http.Server for the blog
// API.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/posts"
	"inkwell/internal/users"
)

// RedisPinger is the part of the redis client the health check needs.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Server holds the dependencies for the HTTP server
type Server struct {
	db     database.Service
	redis  RedisPinger
	logger *slog.Logger

	allowedOrigins []string

	users          *users.Handler
	posts          *posts.Handler
	requireSession gin.HandlerFunc
}

// Deps are the collaborators wired in by cmd/api.
type Deps struct {
	DB             database.Service
	Redis          RedisPinger
	Logger         *slog.Logger
	Users          *users.Handler
	Posts          *posts.Handler
	RequireSession gin.HandlerFunc
}

func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		db:             deps.DB,
		redis:          deps.Redis,
		logger:         logger,
		allowedOrigins: cfg.CORSAllowedOrigins,
		users:          deps.Users,
		posts:          deps.Posts,
		requireSession: deps.RequireSession,
	}
}

// HTTPServer configures the listener with the timeouts from cfg.
func (s *Server) HTTPServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
