package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is kept in PRAGMA user_version.
const schemaVersion = 1

// ErrNoDatabase is returned by OpenExisting when the file is missing.
var ErrNoDatabase = errors.New("database not found")

// Store records generation runs and their identifier mappings.
type Store struct {
	db *sql.DB
}

// connection settings passed to go-sqlite3 on every connect.
var baseParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// Open opens the mapping database at path, creating the file and schema when
// missing. Opening an existing database is idempotent.
func Open(path string) (*Store, error) {
	db, err := connect(path, url.Values{"mode": {"rwc"}})
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenExisting opens a database written by an earlier run for querying.
// It never creates a file and the connection refuses writes.
func OpenExisting(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDatabase, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db, err := connect(path, url.Values{"mode": {"rw"}, "_query_only": {"true"}})
	if err != nil {
		return nil, err
	}
	version, err := userVersion(db)
	if err == nil && version != schemaVersion {
		err = fmt.Errorf("schema version %d, want %d", version, schemaVersion)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func connect(path string, extra url.Values) (*sql.DB, error) {
	params := url.Values{}
	for k, v := range baseParams {
		params[k] = v
	}
	for k, v := range extra {
		params[k] = v
	}
	dsn := "file:" + escapePath(path) + "?" + params.Encode()

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; a single connection also keeps the
	// per-connection pragmas in force for every query.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

var pathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func escapePath(path string) string {
	return pathEscaper.Replace(path)
}

// migrate applies the schema. A database stamped by a newer build is refused
// rather than modified.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}
