package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// StartSQLite opens a SQLite database for local development and tests.
// The pool is pinned to one connection so in-memory databases are shared and
// writers serialise the way row locks would on PostgreSQL.
func StartSQLite(dsn string) (*GORMStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is empty")
	}

	cfg := gormConfig(nil)
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		log.Println("Unable to open SQLite database:", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	return &GORMStore{db: db}, nil
}

// MemoryDSN returns a DSN for a private in-memory database
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
}
