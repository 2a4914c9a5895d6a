package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/neocube/neocube-backend/internal/platform/envutil"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type SQLConfig struct {
	Driver string // sqlite | postgres
	DSN    string
}

func SQLConfigFromEnv() SQLConfig {
	return SQLConfig{
		Driver: strings.ToLower(envutil.String("ANALYTICS_DB_DRIVER", "sqlite")),
		DSN:    envutil.String("ANALYTICS_DSN", "neocube_analytics.db"),
	}
}

// SQLService owns the gorm handle for the analytics log.
type SQLService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLService(logg *logger.Logger, cfg SQLConfig) (*SQLService, error) {
	serviceLog := logg.With("service", "SQLService", "driver", cfg.Driver)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported ANALYTICS_DB_DRIVER %q", cfg.Driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}
	if err := AutoMigrateAll(db); err != nil {
		return nil, err
	}
	serviceLog.Info("Analytics database ready")
	return &SQLService{db: db, log: serviceLog}, nil
}

func (s *SQLService) DB() *gorm.DB { return s.db }

func (s *SQLService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
