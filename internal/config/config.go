package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	Port        int
	DBURL       string
	DBMaxConns  int
	DBMinConns  int
	ServiceName string
	Version     string

	// session tokens
	JWTSecret         string
	SessionTTLMinutes int
	CookieName        string

	// bootstrap administrator, skipped when either value is empty
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// media storage: "disk" or "s3"
	MediaDriver    string
	MediaDir       string
	MediaURLPrefix string
	MaxUploadBytes int64

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	OTLPEndpoint     string
	TraceSampleRatio float64
	AllowedOrigins   []string
}

// DevJWTSecret is the signing key used when JWT_SECRET is unset. It is only
// accepted in dev and test.
const DevJWTSecret = "dev-secret-change-me"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set outside dev and test")

func Load() Config {
	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8000),
		DBURL:       buildDBURL(),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:  getEnvInt("DB_MIN_CONNS", 0),
		ServiceName: getEnv("SERVICE_NAME", "klaape-api"),
		Version:     getEnv("APP_VERSION", "1.0.0"),

		JWTSecret:         getEnv("JWT_SECRET", DevJWTSecret),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 60*24*14),
		CookieName:        getEnv("SESSION_COOKIE_NAME", "klaape_session"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 0),

		MediaDriver:    getEnv("MEDIA_DRIVER", "disk"),
		MediaDir:       getEnv("MEDIA_ROOT", "./media"),
		MediaURLPrefix: getEnv("MEDIA_URL", "/media"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    getEnv("S3_REGION", "auto"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),

		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_RATIO", 1),
		AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8081", "http://localhost:19006"}),
	}
}

// Validate refuses settings that are only safe on a developer machine.
func (c Config) Validate() error {
	switch c.Env {
	case "dev", "test":
		return nil
	}

	if c.JWTSecret == "" || c.JWTSecret == DevJWTSecret {
		return ErrInsecureJWTSecret
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "klaape")
	pass := getEnv("DB_PASSWORD", "klaape")
	name := getEnv("DB_NAME", "klaape")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithRequestTimeout bounds a store call while keeping the request's values
// (trace span, actor) attached.
func WithRequestTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
