// Package columnar maintains a flat SQLite query layer derived from the JSON
// cache artifacts. Tables are rebuilt wholesale from artifacts; the database
// is disposable and can be regenerated at any time.
package columnar

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Profile selects the PRAGMA set for a database.
type Profile string

const (
	// ProfileDerived - speed over durability; the data is rebuilt from JSON.
	ProfileDerived Profile = "derived"
	// ProfileStandard - balanced configuration.
	ProfileStandard Profile = "standard"
)

// DB wraps the SQLite connection with profile-specific configuration.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
}

// OpenDB opens (creating if needed) the columnar database at path.
func OpenDB(path string, profile Profile) (*DB, error) {
	if profile == "" {
		profile = ProfileDerived
	}

	resolved := path
	if !isURI(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		resolved = abs
	}

	conn, err := sql.Open("sqlite", connectionString(resolved, profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open columnar database: %w", err)
	}
	configurePool(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping columnar database: %w", err)
	}

	return &DB{conn: conn, path: resolved, profile: profile}, nil
}

func isURI(path string) bool {
	return len(path) > 5 && path[:5] == "file:"
}

// connectionString builds the DSN with profile-specific PRAGMAs. WAL mode is
// on for all profiles so readers never block the rebuild writer.
func connectionString(path string, profile Profile) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	switch profile {
	case ProfileDerived:
		connStr += "&_pragma=synchronous(OFF)"
		connStr += "&_pragma=auto_vacuum(FULL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	default:
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=auto_vacuum(INCREMENTAL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	}
	connStr += "&_pragma=wal_autocheckpoint(1000)"
	connStr += "&_pragma=cache_size(-64000)"
	return connStr
}

func configurePool(conn *sql.DB) {
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying pool for queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// WithTransaction runs fn inside a transaction with rollback on error or
// panic.
func WithTransaction(db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
			}
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// SizeBytes reports the on-disk size of the database plus its WAL file.
func (db *DB) SizeBytes() int64 {
	var size int64
	if info, err := os.Stat(db.path); err == nil {
		size += info.Size()
	}
	if info, err := os.Stat(db.path + "-wal"); err == nil {
		size += info.Size()
	}
	return size
}

// HealthCheck pings the connection and runs an integrity check.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
