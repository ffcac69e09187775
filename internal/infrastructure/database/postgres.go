package database

import (
	"fmt"

	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *logrus.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.WithField("host", cfg.Host).Info("connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities and creates the
// indexes GORM tags cannot express.
func AutoMigrate(db *gorm.DB, log *logrus.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.User{},

		&entity.Category{},
		&entity.Product{},

		&entity.Customer{},
		&entity.Supplier{},

		&entity.Shift{},
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.Payment{},
		&entity.PurchaseOrder{},
		&entity.PurchaseOrderItem{},

		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// A user holds at most one open shift.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_open_per_user ON shifts (user_id) WHERE close_at IS NULL`).Error; err != nil {
		return fmt.Errorf("failed to create open shift index: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}
