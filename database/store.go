package database

import (
	"fmt"

	"github.com/sahilchouksey/admission-api/config"
	"gorm.io/gorm"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns the handle injected into every service
	GetDB() *gorm.DB
}

// Open connects to the database selected by DB_DRIVER
func Open(env *config.EnviornmentVariable) (*GORMStore, error) {
	switch env.DB_DRIVER {
	case "", "postgres":
		return StartGORM(env)
	case "sqlite":
		return StartSQLite(env.SQLITE_PATH)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", env.DB_DRIVER)
	}
}
