package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	goredis "github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/huntlog/internal/client/config"
	"github.com/dmitrijs2005/huntlog/internal/client/migrations"
	"github.com/dmitrijs2005/huntlog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/huntlog/internal/filex"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Storage is the durable session storage plus the function releasing it.
type Storage struct {
	Metadata metadata.Repository
	Close    func() error
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn and brings its schema up
// to date.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return db, nil
}

// OpenStorage builds the metadata repository for the configured backend.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		if err := filex.EnsureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		db, err := InitDatabase(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Storage{Metadata: metadata.NewSQLiteRepository(db), Close: db.Close}, nil

	case config.BackendRedis:
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("%w: redis %s: %w", ErrUnavailable, cfg.RedisAddr, err)
		}
		return &Storage{
			Metadata: metadata.NewRedisRepository(rdb, metadata.DefaultRedisPrefix),
			Close:    rdb.Close,
		}, nil

	case config.BackendMemory:
		return &Storage{Metadata: metadata.NewMemoryRepository(), Close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StorageBackend)
}
