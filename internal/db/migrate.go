package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-crm/internal/models"
)

// allModels lists every entity in migration order.
var allModels = []any{
	&models.User{},
	&models.UserProfile{},
	&models.Contact{},
	&models.Opportunity{},
	&models.Communication{},
	&models.Document{},
}

// Connect opens the database. A postgres:// DSN selects the postgres driver
// with a small retry loop; an empty DSN falls back to a local sqlite file for
// development.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	if dsn == "" {
		return gorm.Open(sqlite.Open("crm.db"), cfg)
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return db, nil
}

// Migrate applies the schema. With useSQL (and a postgres DSN) it runs the
// SQL migrations in ./migrations via golang-migrate; otherwise it falls back
// to GORM AutoMigrate, which is also what tests and the sqlite path use.
func Migrate(db *gorm.DB, dsn string, useSQL bool) error {
	if useSQL && strings.HasPrefix(strings.ToLower(dsn), "postgres") {
		return runSQLMigrations(dsn)
	}
	for _, m := range allModels {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "contacts", "opportunities"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
