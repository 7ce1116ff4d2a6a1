package db

import (
	"fmt"

	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Person{},
		&models.Machine{},
		&models.MachineManager{},
		&models.TaskTemplate{},
		&models.TaskAssignment{},
		&models.TaskItem{},
		&models.Conversation{},
	}
}

// Migrate creates or updates all tables. Safe to run at every startup.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
