package lib

import (
	"github.com/theleywin/Backend-Kindred/src/models"
	"gorm.io/gorm"
)

// AutoMigrate runs all relational migrations
func AutoMigrate(db *gorm.DB, log *Logger) error {
	err := db.AutoMigrate(
		&models.Connection{},
		&models.Milestone{},
		&models.StageHistory{},
		&models.Notification{},
	)
	if err != nil {
		log.Error("Failed to migrate database", "error", err)
		return err
	}

	log.Info("Database migration completed")
	return nil
}
