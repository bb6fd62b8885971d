package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // libSQL driver
	_ "modernc.org/sqlite"                                // SQLite driver
)

const (
	// DriverSQLite stores data in a local SQLite file.
	DriverSQLite = "sqlite"
	// DriverLibSQL stores data in a remote libSQL database.
	DriverLibSQL = "libsql"
)

// Options configures Open.
type Options struct {
	// Driver is DriverSQLite or DriverLibSQL.
	Driver string

	// Path is the SQLite file; its directory is created when missing.
	Path string

	// DSN is the libSQL URL, e.g. libsql://db.turso.io?authToken=...
	DSN string

	// EnableWAL switches a SQLite file to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns SQLite options for path.
func DefaultOptions(path string) Options {
	return Options{
		Driver:    DriverSQLite,
		Path:      path,
		EnableWAL: true,
	}
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store persists admission lists and persons.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, opts Options, options ...Option) (*Store, error) {
	s := &Store{logger: slog.Default()}
	for _, o := range options {
		o(s)
	}
	s.logger = s.logger.With("component", "database")

	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		db, err = openSQLite(ctx, opts)
	case DriverLibSQL:
		db, err = sql.Open("libsql", opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s.logger.Debug("database ready", "driver", opts.Driver, "path", opts.Path, "dsn", opts.DSN)
	return s, nil
}

func openSQLite(ctx context.Context, opts Options) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", opts.Path+"?mode=rwc&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// schema is the fixed storage contract. Statements are executed one by one
// since the libSQL driver does not accept multi-statement scripts.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS AdmissionType (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		Name VARCHAR(20) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS SchoolDepartment (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		SchoolCode VARCHAR(10) NOT NULL,
		DepartmentCode VARCHAR(10) NOT NULL,
		SchoolName VARCHAR(50) NOT NULL,
		DepartmentName VARCHAR(50) NOT NULL,
		UNIQUE (SchoolCode, DepartmentCode)
	)`,
	`CREATE TABLE IF NOT EXISTS AdmissionList (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		Year INTEGER NOT NULL,
		Method INTEGER NOT NULL REFERENCES AdmissionType(Id),
		SchoolDepartmentID INTEGER NOT NULL REFERENCES SchoolDepartment(Id),
		AverageScore VARCHAR(20),
		Weight VARCHAR(20),
		SameGradeOrder VARCHAR(20),
		GeneralGrade VARCHAR(20),
		NativeGrade VARCHAR(20),
		VeteranGrade VARCHAR(20),
		OverseaGrade VARCHAR(20),
		UniversityApply VARCHAR(20),
		GroupCode VARCHAR(20),
		UNIQUE (Year, Method, SchoolDepartmentID)
	)`,
	`CREATE TABLE IF NOT EXISTS AdmissionPerson (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		AdmissionListId INTEGER NOT NULL REFERENCES AdmissionList(Id),
		AdmissionTicket VARCHAR(20) NOT NULL,
		Name VARCHAR(20),
		ExamArea VARCHAR(20),
		SecondStageStatus VARCHAR(20),
		AdmissionStatus VARCHAR(20),
		UNIQUE (AdmissionListId, AdmissionTicket)
	)`,
}

func (s *Store) createTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
