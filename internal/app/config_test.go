package app

import (
	"testing"
	"time"

	"github.com/neocube/neocube-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "JWT_SECRET", "JWT_SECRET_KEY", "JWT_EXPIRE", "AI_PROVIDER", "CLIENT_URL", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "5000" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.AccessTokenTTL != 7*24*time.Hour {
		t.Fatalf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("AIProvider = %q", cfg.AIProvider)
	}
	if cfg.Redis.Addr != "" || len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("unexpected redis/origins: %+v %v", cfg.Redis, cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRE", "2d")
	t.Setenv("ADMIN_EMAILS", "a@x.io, b@x.io")
	t.Setenv("CLIENT_URL", "https://neocube.app,https://admin.neocube.app")
	t.Setenv("LIST_CACHE_TTL_SECONDS", "30")

	cfg := LoadConfig(logger.Nop())
	if cfg.JWTSecretKey != "s3cret" || cfg.AccessTokenTTL != 48*time.Hour {
		t.Fatalf("jwt config: %q %v", cfg.JWTSecretKey, cfg.AccessTokenTTL)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "b@x.io" {
		t.Fatalf("AdminEmails = %v", cfg.AdminEmails)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.ListCacheTTL != 30*time.Second {
		t.Fatalf("ListCacheTTL = %v", cfg.ListCacheTTL)
	}
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := Config{LogMode: "production", JWTSecretKey: defaultJWTSecret}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for default secret in production")
	}
	cfg.JWTSecretKey = "real"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := (Config{LogMode: "development", JWTSecretKey: defaultJWTSecret}).Validate(); err != nil {
		t.Fatalf("development should allow default secret: %v", err)
	}
}

func TestWireTextModelRejectsUnknownProvider(t *testing.T) {
	if _, err := wireTextModel(t.Context(), logger.Nop(), Config{AIProvider: "llama"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
