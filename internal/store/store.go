// Package store persists users, categories and transactions. Every read and
// write that touches user data is scoped by user id.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthurium-ai/personal-finance/internal/db"
	"github.com/anthurium-ai/personal-finance/internal/model"
)

// Storage errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// Store is the ledger persistence contract.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	Category(ctx context.Context, userID, id int64) (*model.Category, error)
	CategoryByName(ctx context.Context, userID int64, name string) (*model.Category, error)
	ListCategories(ctx context.Context, userID int64, limit, offset int) (model.Page[model.Category], error)
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error

	// CreateTransaction inserts t. A non-empty rowHash deduplicates imports:
	// a second insert with the same hash for the same user returns
	// ErrDuplicate.
	CreateTransaction(ctx context.Context, t *model.Transaction, rowHash string) error
	Transaction(ctx context.Context, userID, id int64) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, f model.TransactionFilter) (model.Page[model.Transaction], error)
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error

	// CategorizedHistory returns the user's categorized transactions, most
	// recent first, at most limit of them (0 means no limit).
	CategorizedHistory(ctx context.Context, userID int64, limit int) ([]model.TransactionRecord, error)

	Stats(ctx context.Context) (model.Stats, error)
	Close() error
}

// Drivers accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the backing database.
type Config struct {
	Driver string
	Path   string
	URL    string
}

// Open connects to the configured database and applies its schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = db.DefaultPath()
		}
		conn, err := db.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return NewSQLite(conn), nil
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, errors.New("database url is required for the postgres driver")
		}
		pool, err := db.Connect(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgres(pool), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
