package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql schema_postgres.sql
var schemaFS embed.FS

// Memory is the sqlite path of a private in-memory database.
const Memory = ":memory:"

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*sql.DB, error) {
	if path != Memory {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded sqlite schema. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

// Connect opens a pgx pool for url and checks it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// MigratePostgres applies the embedded postgres schema. It is idempotent.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	b, err := schemaFS.ReadFile("schema_postgres.sql")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func ensureDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0o750)
}

// DefaultPath is where the sqlite database lives unless configured.
func DefaultPath() string {
	return filepath.Join("data", "finance.db")
}
