package db

import (
	"fmt"

	"github.com/sirdesai22/lacs-verts/internal/models"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Lake{},
		&models.Report{},
		&models.AwarenessPost{},
		&models.Outbox{},
		&models.DLQ{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
