package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/neocube/neocube-backend/internal/platform/redis"
	"github.com/neocube/neocube-backend/internal/data/db"
	"github.com/neocube/neocube-backend/internal/modules/roadmap"
	"github.com/neocube/neocube-backend/internal/platform/cache"
	"github.com/neocube/neocube-backend/internal/platform/gemini"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/platform/openai"
)

type Clients struct {
	Mongo     *db.MongoService
	Analytics *db.SQLService
	Redis     *redis.Client

	// Cache and Locker are backed by Redis when configured, otherwise in-process.
	Cache  cache.Store
	Locker cache.Locker

	// TextModel is nil when no provider key is configured; generation then fails soft.
	TextModel roadmap.TextModel
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	mongoSvc, err := db.NewMongoService(ctx, log, cfg.Mongo)
	if err != nil {
		return c, fmt.Errorf("init mongo: %w", err)
	}
	c.Mongo = mongoSvc

	sqlSvc, err := db.NewSQLService(log, cfg.Analytics)
	if err != nil {
		c.Close(ctx)
		return Clients{}, fmt.Errorf("init analytics db: %w", err)
	}
	c.Analytics = sqlSvc

	if cfg.Redis.Addr != "" {
		rc, err := redis.NewClient(ctx, log, cfg.Redis)
		if err != nil {
			c.Close(ctx)
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rc
		c.Cache, c.Locker = rc, rc
	} else {
		log.Info("REDIS_ADDR not set; using in-process cache and locks")
		mem := cache.NewMemory(cfg.ListCacheTTL)
		c.Cache, c.Locker = mem, mem
	}

	model, err := wireTextModel(ctx, log, cfg)
	if err != nil {
		log.Warn("Text model unavailable; roadmap generation disabled", "provider", cfg.AIProvider, "error", err)
	} else {
		c.TextModel = model
	}
	return c, nil
}

func wireTextModel(ctx context.Context, log *logger.Logger, cfg Config) (roadmap.TextModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "openai":
		c, err := openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini", "":
		c, err := gemini.NewClient(ctx, log, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
}

func (c *Clients) Close(ctx context.Context) {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Analytics != nil {
		_ = c.Analytics.Close()
	}
	if c.Mongo != nil {
		_ = c.Mongo.Close(ctx)
	}
}
