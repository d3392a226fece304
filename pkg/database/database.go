package database

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// Database wraps the GORM connection.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the sqlite database at dbPath and migrates the schema.
// TranslateError is enabled so race-lost unique inserts surface as
// gorm.ErrDuplicatedKey.
func NewDatabase(dbPath string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}

// Migrate runs the schema migration for all models.
func (d *Database) Migrate() error {
	return d.DB.AutoMigrate(
		&models.User{},
		&models.Major{},
		&models.Task{},
		&models.Assignment{},
		&models.ReminderRecord{},
		&models.Follow{},
		&models.PushSubscription{},
	)
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureDefaultTeacher creates the bootstrap teacher account if no account
// with the username exists. A blank password skips the bootstrap entirely.
func (d *Database) EnsureDefaultTeacher(username, name, password string) error {
	if password == "" {
		return nil
	}

	var user models.User
	result := d.DB.Where("username = ?", username).First(&user)
	if result.Error == nil {
		return nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash teacher password: %w", err)
	}

	teacher := models.User{
		Username: username,
		Name:     name,
		Password: string(hash),
		Role:     models.RoleTeacher,
	}
	if err := d.DB.Create(&teacher).Error; err != nil {
		return fmt.Errorf("failed to create default teacher: %w", err)
	}

	return nil
}
