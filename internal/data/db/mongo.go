package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/neocube/neocube-backend/internal/platform/envutil"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

func MongoConfigFromEnv() MongoConfig {
	return MongoConfig{
		URI:      envutil.First("mongodb://localhost:27017", "MONGODB_URI", "MONGO_URI"),
		Database: envutil.String("MONGODB_DB", "neocube"),
		Timeout:  time.Duration(envutil.Int("MONGODB_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

type MongoService struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func NewMongoService(ctx context.Context, logg *logger.Logger, cfg MongoConfig) (*MongoService, error) {
	serviceLog := logg.With("service", "MongoService", "database", cfg.Database)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	serviceLog.Info("Connected to MongoDB")
	return &MongoService{client: client, db: client.Database(cfg.Database), log: serviceLog}, nil
}

func (s *MongoService) DB() *mongo.Database { return s.db }

func (s *MongoService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
