package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
	"github.com/pkg/errors"

	"bakerychat/internal/models"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var DB *gorm.DB

// InitDB initializes the database connection and migrates the archive tables
func InitDB(driver, dsn string) error {
	db, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects to the transcript database. driver is sqlite3 or postgres.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.DB().SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&models.TranscriptMessage{}).Error; err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate transcript table")
	}
	return db, nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
