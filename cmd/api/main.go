package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/config"
	"inkwell/internal/consul"
	"inkwell/internal/database"
	"inkwell/internal/events"
	"inkwell/internal/logger"
	"inkwell/internal/posts"
	"inkwell/internal/server"
	"inkwell/internal/session"
	"inkwell/internal/users"
)

const serviceName = "inkwell-api"

func gracefulShutdown(apiServer *http.Server, registrar consul.Registrar, serviceID string, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	slog.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	if registrar != nil {
		if err := registrar.Deregister(serviceID); err != nil {
			slog.Error("Failed to deregister from Consul", "error", err)
		} else {
			slog.Info("Deregistered from Consul", "service_id", serviceID)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exiting")
	done <- true
}

func main() {
	log := logger.New()
	logger.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("API stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting API", "port", cfg.Port, "env", cfg.AppEnv)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(startCtx, database.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(startCtx); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(startCtx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info("Connected to Redis", "addr", cfg.RedisAddr)

	publisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	sessions := session.NewResolver(session.NewManager(session.NewRedisStore(redisClient)), cfg.SessionMaxAge, log)
	cookies := session.NewCookieCodec([]byte(cfg.SessionSecret), cfg.SessionMaxAge, cfg.IsProduction())

	postService := posts.NewService(posts.NewRepository(db), redisClient, cfg.CacheTTL, publisher, log)
	userRepo := users.NewRepository(db, users.NewHasher(cfg.BcryptCost))
	userService := users.NewService(db, userRepo, sessions, postService, publisher, log)

	app := server.New(cfg, server.Deps{
		DB:             db,
		Redis:          redisClient,
		Logger:         log,
		Users:          users.NewHandler(userService, cookies),
		Posts:          posts.NewHandler(postService),
		RequireSession: session.RequireSession(sessions, cookies),
	})
	apiServer := app.HTTPServer(cfg)

	var (
		registrar consul.Registrar
		serviceID string
	)
	if cfg.ConsulAddr != "" {
		registrar, serviceID, err = registerWithConsul(cfg)
		if err != nil {
			return err
		}
		log.Info("Registered with Consul", "service_id", serviceID)
	}

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, registrar, serviceID, done)

	log.Info("API listening", "addr", apiServer.Addr)
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Info("Graceful shutdown complete")
	return nil
}

func newPublisher(cfg *config.Config, log *slog.Logger) (events.Publisher, error) {
	if !cfg.EnableKafka {
		return events.NewLogPublisher(log), nil
	}

	p, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:           cfg.KafkaBrokers,
		Topic:             cfg.KafkaEventTopic,
		EnableIdempotence: true,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return p, nil
}

func registerWithConsul(cfg *config.Config) (consul.Registrar, string, error) {
	client, err := consul.NewClient(cfg.ConsulAddr, cfg.ConsulToken)
	if err != nil {
		return nil, "", fmt.Errorf("create consul client: %w", err)
	}

	svc, err := consul.APIService(serviceName, cfg.ServiceHost, cfg.Port)
	if err != nil {
		return nil, "", err
	}

	// Clear a stale registration left by a crashed instance with the same id.
	_ = client.Deregister(svc.ID)

	if err := client.Register(svc); err != nil {
		return nil, "", err
	}
	return client, svc.ID, nil
}
