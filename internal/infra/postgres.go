package infra

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
)

func InitPostgresql() *gorm.DB {
	dsn := os.Getenv("POSTGRES_URL")

	// TranslateError turns unique-constraint violations into
	// gorm.ErrDuplicatedKey, which the idempotency ledger and the
	// charge-id guard rely on as control flow.
	connectionPool, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Printf("Error connecting to database: %v", err)
		log.Fatal("Error connecting to database")
	}

	if os.Getenv("AUTO_MIGRATE") == "true" {
		if err := AutoMigrate(connectionPool); err != nil {
			log.Fatalf("Error running migrations: %v", err)
		}
	}

	return connectionPool
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&db_models.Organization{},
		&db_models.Group{},
		&db_models.Individual{},
		&db_models.Subscription{},
		&db_models.Transaction{},
		&db_models.ProcessedEvent{},
		&db_models.ReportShare{},
	)
}

func ClosePostgresql(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting database instance: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("PostgreSQL database connection closed successfully")
	}
}
