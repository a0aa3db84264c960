package database

import (
	"fmt"

	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(resolveLogLevel(cfg)),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

// Models lists every persisted type, parents before the components they own.
func Models() []any {
	return []any{
		&models.Media{},
		&models.Author{},
		&models.SocialLink{},
		&models.Category{},
		&models.Tag{},
		&models.Article{},
		&models.SEO{},
		&models.ContentSection{},
		&models.CallToAction{},
		&models.Reference{},
		&models.BlogPost{},
		&models.APIToken{},
	}
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	if db.Dialector.Name() == "mysql" {
		for _, stmt := range []string{
			"ALTER TABLE `files` MODIFY COLUMN `formats` LONGTEXT NULL",
			"ALTER TABLE `components_shared_seos` MODIFY COLUMN `structured_data` LONGTEXT NULL",
		} {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
