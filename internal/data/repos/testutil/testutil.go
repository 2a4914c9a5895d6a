package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/neocube/neocube-backend/internal/domain"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

var errMissingMongoURI = errors.New("missing TEST_MONGO_URI")

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// MongoDB returns a fresh, uniquely named database dropped on cleanup.
func MongoDB(tb testing.TB) *mongo.Database {
	tb.Helper()

	mongoOnce.Do(func() {
		uri := os.Getenv("TEST_MONGO_URI")
		if uri == "" {
			mongoErr = errMissingMongoURI
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient, mongoErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if mongoErr == nil {
			mongoErr = mongoClient.Ping(ctx, nil)
		}
	})

	if errors.Is(mongoErr, errMissingMongoURI) {
		tb.Skip("set TEST_MONGO_URI to run repo integration tests")
	}
	if mongoErr != nil {
		tb.Fatalf("failed to init test mongo: %v", mongoErr)
	}

	db := mongoClient.Database(fmt.Sprintf("neocube_test_%s", primitive.NewObjectID().Hex()))
	tb.Cleanup(func() {
		_ = db.Drop(context.Background())
	})
	return db
}

// SQLite opens a private in-memory analytics database.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:analytics_%s?mode=memory&cache=shared", primitive.NewObjectID().Hex())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.RelationalModels()...); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
