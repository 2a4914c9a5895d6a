package app

import (
	"errors"
	"time"

	"github.com/neocube/neocube-backend/internal/platform/redis"
	"github.com/neocube/neocube-backend/internal/data/db"
	"github.com/neocube/neocube-backend/internal/observability"
	"github.com/neocube/neocube-backend/internal/platform/envutil"
	"github.com/neocube/neocube-backend/internal/platform/gemini"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/platform/openai"
)

const defaultJWTSecret = "defaultsecret"

var errMissingJWTSecret = errors.New("JWT_SECRET is required in production")

type Config struct {
	Port    string
	LogMode string

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AdminEmails    []string
	AllowedOrigins []string

	AIProvider        string
	Gemini            gemini.Config
	OpenAI            openai.Config
	RoadmapSteps      int
	ResourcesPerStep  int
	ListCacheTTL      time.Duration
	GenerationLockTTL time.Duration
	AvatarColors      []string

	Mongo     db.MongoConfig
	Analytics db.SQLConfig
	Redis     redis.Config
	Otel      observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:    envutil.String("PORT", "5000"),
		LogMode: envutil.String("LOG_MODE", "development"),

		JWTSecretKey:   envutil.First(defaultJWTSecret, "JWT_SECRET", "JWT_SECRET_KEY"),
		AccessTokenTTL: envutil.Duration("JWT_EXPIRE", 7*24*time.Hour),
		AdminEmails:    envutil.List("ADMIN_EMAILS"),
		AllowedOrigins: envutil.List("CLIENT_URL"),

		AIProvider:        envutil.String("AI_PROVIDER", "gemini"),
		Gemini:            gemini.ConfigFromEnv(),
		OpenAI:            openai.ConfigFromEnv(),
		RoadmapSteps:      envutil.Int("ROADMAP_STEPS", 10),
		ResourcesPerStep:  envutil.Int("ROADMAP_RESOURCES_PER_STEP", 4),
		ListCacheTTL:      time.Duration(envutil.Int("LIST_CACHE_TTL_SECONDS", 60)) * time.Second,
		GenerationLockTTL: time.Duration(envutil.Int("GENERATION_LOCK_TTL_SECONDS", 120)) * time.Second,
		AvatarColors:      envutil.List("AVATAR_COLORS"),

		Mongo:     db.MongoConfigFromEnv(),
		Analytics: db.SQLConfigFromEnv(),
		Redis:     redis.ConfigFromEnv(),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "neocube-api"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET not set; using the development default")
	}
	return cfg
}

// Validate rejects settings that are unsafe outside development.
func (c Config) Validate() error {
	if isProduction(c.LogMode) && c.JWTSecretKey == defaultJWTSecret {
		return errMissingJWTSecret
	}
	return nil
}
