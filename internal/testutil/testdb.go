package testutil

import (
	"project-board-api/internal/database"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
// The pool is pinned to one connection because every ":memory:" connection
// opens its own empty database.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewLogger returns a logger that records entries instead of printing them.
func NewLogger() (*log.Logger, *test.Hook) {
	return test.NewNullLogger()
}
