package database

import (
	"fmt"
	"log"

	"careersync/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return MigrateAll(DB)
}

// MigrateAll migrates every model on the given connection. Split out so
// tests can run the same migrations against an in-memory database.
func MigrateAll(db *gorm.DB) error {
	allModels := []interface{}{
		&models.User{},
		&models.ReferralCode{},
		&models.Referral{},
		&models.ReferralReward{},
		&models.UserSession{},
		&models.CVAnalysis{},
		&models.RateLimit{},
		&models.Subscription{},
		&models.Interview{},
	}

	for _, model := range allModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
