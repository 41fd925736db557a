package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"police_case_app_go/models"

	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide connection set by Initialize
var DB *gorm.DB

var errNotInitialized = errors.New("database not initialized")

// Options selects and tunes the database connection
type Options struct {
	Path        string // local sqlite file, used when TursoURL is empty
	Environment string
	TursoURL    string
	TursoToken  string
}

// Schema lists every table of the case store in migration order
func Schema() []interface{} {
	return []interface{}{
		&models.Center{},
		&models.User{},
		&models.Session{},
		&models.Case{},
		&models.CaseAssignment{},
		&models.CaseStatusHistory{},
		&models.CaseReopenHistory{},
		&models.Notification{},
		&models.AuditLog{},
	}
}

// Open connects to Turso when a URL is set, otherwise to the local sqlite
// file in WAL mode
func Open(opts Options) (*gorm.DB, error) {
	level := logger.Info
	if opts.Environment == "production" {
		level = logger.Warn
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	if opts.TursoURL == "" {
		conn, err := gorm.Open(sqlite.Open(opts.Path+"?_journal_mode=WAL&_busy_timeout=5000"), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", opts.Path, err)
		}
		return conn, nil
	}

	dsn := opts.TursoURL
	if opts.TursoToken != "" {
		dsn += "?authToken=" + url.QueryEscape(opts.TursoToken)
	}
	sqlDB, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open turso: %w", err)
	}
	conn, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "libsql", Conn: sqlDB}), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect turso: %w", err)
	}
	return conn, nil
}

// Initialize opens the database and stores it in DB
func Initialize(opts Options, log zerolog.Logger) error {
	conn, err := Open(opts)
	if err != nil {
		return err
	}
	DB = conn

	if opts.TursoURL != "" {
		log.Info().Str("database", opts.TursoURL).Msg("database connection established (turso)")
	} else {
		log.Info().Str("database", opts.Path).Msg("database connection established (WAL mode enabled)")
	}
	return nil
}

// Migrate brings the given tables, or the whole Schema when none are given, up to date
func Migrate(tables ...interface{}) error {
	if DB == nil {
		return errNotInitialized
	}
	if len(tables) == 0 {
		tables = Schema()
	}
	if err := DB.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return sqlDB.Close()
}
