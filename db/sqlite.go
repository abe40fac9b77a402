// Package db persists lifted snapshots in SQLite, either a local file or
// a Turso/libsql URL.
package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oxhq/astir/models"
)

// AuthTokenEnv names the variable carrying the auth token for remote
// libsql DSNs.
const AuthTokenEnv = "ASTIR_LIBSQL_AUTH_TOKEN"

// Connect opens the snapshot database and runs migrations. File DSNs use
// the pure-Go sqlite driver; http(s) and libsql URLs go through a libsql
// connector.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	dialector, conn, err := openDialector(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func openDialector(dsn string) (gorm.Dialector, *sql.DB, error) {
	if !isURL(dsn) {
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(dsn), nil, nil
	}

	var (
		connector driver.Connector
		err       error
	)
	if token := os.Getenv(AuthTokenEnv); token != "" {
		connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
	} else {
		connector, err = libsql.NewConnector(dsn)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create libsql connector: %w", err)
	}

	conn := sql.OpenDB(connector)
	return cgosqlite.New(cgosqlite.Config{
		DriverName: "libsql",
		Conn:       conn,
		DSN:        dsn,
	}), conn, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "https://") ||
		strings.HasPrefix(dsn, "libsql:")
}

// Migrate creates or updates the snapshot schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Session{},
		&models.Snapshot{},
	)
}
