package client

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/pharmalink/internal/client/config"
	"github.com/dmitrijs2005/pharmalink/internal/client/migrations"
	"github.com/dmitrijs2005/pharmalink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pharmalink/internal/dbx"
	"github.com/dmitrijs2005/pharmalink/internal/filex"
)

// Storage is an opened session backend.
type Storage struct {
	Metadata metadata.Repository
	close    func() error
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage opens the session backend selected by kind. SQL backends are
// migrated before use; Redis is pinged.
func OpenStorage(ctx context.Context, kind config.StoreKind, dsn string) (*Storage, error) {
	switch kind {
	case config.StoreSQLite:
		return openSQL(ctx, dbx.DialectSQLite, dsn)
	case config.StorePostgres:
		return openSQL(ctx, dbx.DialectPostgres, dsn)
	case config.StoreRedis:
		return openRedis(ctx, dsn)
	case config.StoreMemory:
		return &Storage{Metadata: metadata.NewMemoryRepository()}, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

// InitDatabase opens a SQL database for dialect and applies migrations.
func InitDatabase(ctx context.Context, dialect dbx.Dialect, dsn string) (*sql.DB, error) {
	if dialect == dbx.DialectSQLite {
		if err := filex.EnsureParentDir(filex.SQLitePath(dsn)); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", dialect, err)
	}
	if err := migrations.Up(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openSQL(ctx context.Context, dialect dbx.Dialect, dsn string) (*Storage, error) {
	db, err := InitDatabase(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		Metadata: metadata.NewSQLRepository(db, dialect),
		close:    db.Close,
	}, nil
}

func openRedis(ctx context.Context, url string) (*Storage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Storage{
		Metadata: metadata.NewRedisRepository(rdb, metadata.DefaultRedisPrefix),
		close:    rdb.Close,
	}, nil
}
