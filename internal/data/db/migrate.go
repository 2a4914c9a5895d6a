package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/neocube/neocube-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.RelationalModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
