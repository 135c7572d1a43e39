package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leadcapture/internal/config"
)

func Connect(c *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if c.IsDevelopment() {
		level = logger.Info
	}

	db, err := Open(postgres.Open(c.DatabaseURL), level)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Open is shared by Connect and the tests, which pass an SQLite dialector.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Account{}, &Lead{}, &LeadNote{}, &LeadDocument{})
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Paginate clamps limit to (0, MaxPageSize] and offset to >= 0.
func Paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			limit = DefaultPageSize
		}
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
		if offset < 0 {
			offset = 0
		}
		return db.Limit(limit).Offset(offset)
	}
}

// IsDuplicateKey reports a unique constraint violation. Drivers without error
// translation are matched on their message.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
