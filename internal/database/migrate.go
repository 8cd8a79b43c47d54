package database

import (
	"errors"
	"fmt"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// SchemaVersion is bumped whenever PersistentModels changes shape. Applied
// versions are recorded in migration_logs so operators can see what a given
// database has been migrated to.
const SchemaVersion = 3

// MigrationLog records an applied schema migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.Image{},
	}
}

// Migrate applies the schema to the given database and records the applied
// version. It is idempotent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("failed to migrate migration log: %w", err)
	}
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var applied MigrationLog
	err := db.Where("version = ?", SchemaVersion).First(&applied).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&MigrationLog{Version: SchemaVersion, Name: "auto"}).Error
	}
	return err
}
