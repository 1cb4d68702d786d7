package database

import (
	"fmt"
	"time"

	config "github.com/anjiri1684/medical_consult/configs"
	"github.com/anjiri1684/medical_consult/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormLog := logger.Default.LogMode(logger.Warn)
	if !cfg.IsProduction() {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConn)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConn / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connected", zap.Int("max_conns", cfg.DatabaseMaxConn))
	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.Consultation{},
		&models.PaymentRecord{},
		&models.DoctorReview{},
		&models.EventMessage{},
		&models.ConsumerOffset{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database migration successful")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
