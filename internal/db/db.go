package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// sqliteDefaults are appended to a sqlite DSN unless the caller already set them.
// _time_format makes modernc write TIMESTAMP columns in a layout it can parse back
// and that sorts lexicographically for UTC values.
var sqliteDefaults = []struct{ key, param string }{
	{"_time_format", "_time_format=sqlite"},
	{"busy_timeout", "_pragma=busy_timeout(5000)"},
}

func Init(driver, connection string) (*sqlx.DB, error) {
	// SQLite: create data directory if needed
	if driver == "sqlite" {
		path, _, _ := strings.Cut(connection, "?")
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		connection = SQLiteDSN(connection)
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected", "driver", driver)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SQLiteDSN adds the connection parameters the repositories rely on.
func SQLiteDSN(connection string) string {
	for _, d := range sqliteDefaults {
		if strings.Contains(connection, d.key) {
			continue
		}
		sep := "&"
		if !strings.Contains(connection, "?") {
			sep = "?"
		}
		connection += sep + d.param
	}
	return connection
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
