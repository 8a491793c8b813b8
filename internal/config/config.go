package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the API process reads from the environment.
type Config struct {
	Port   string
	AppEnv string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret string
	SessionMaxAge time.Duration

	CORSAllowedOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	BcryptCost int
	CacheTTL   time.Duration

	EnableKafka     bool
	KafkaBrokers    string
	KafkaEventTopic string

	ConsulAddr  string
	ConsulToken string
	ServiceHost string
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   GetEnvOrDefault("PORT", "8080"),
		AppEnv: GetEnvOrDefault("APP_ENV", "development"),

		DatabaseURL: databaseURL(),

		RedisAddr:     GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionMaxAge: time.Duration(getEnvInt("SESSION_MAX_AGE", 3600)) * time.Second,

		CORSAllowedOrigins: splitList(GetEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),

		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", time.Minute),

		BcryptCost: getEnvInt("BCRYPT_COST", 12),
		CacheTTL:   getEnvDuration("CACHE_TTL", 2*time.Minute),

		EnableKafka:     getEnvBool("ENABLE_KAFKA", false),
		KafkaBrokers:    GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"),
		KafkaEventTopic: GetEnvOrDefault("KAFKA_TOPIC_BLOG_EVENTS", "blog.events"),

		ConsulAddr:  os.Getenv("CONSUL_HTTP_ADDR"),
		ConsulToken: os.Getenv("CONSUL_HTTP_TOKEN"),
		ServiceHost: GetEnvOrDefault("SERVICE_HOST", "localhost"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if err := ValidateSessionSecret(c.SessionSecret, c.IsProduction()); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_DATABASE must be set")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* parts.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_DATABASE")
	if host == "" || name == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("DB_USERNAME"), os.Getenv("DB_PASSWORD")),
		Host:   host + ":" + GetEnvOrDefault("DB_PORT", "5432"),
		Path:   name,
	}
	q := url.Values{}
	q.Set("sslmode", GetEnvOrDefault("DB_SSLMODE", "disable"))
	if schema := os.Getenv("DB_SCHEMA"); schema != "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
