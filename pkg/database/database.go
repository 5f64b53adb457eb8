package database

import (
	"context"
	"fmt"
	"time"

	"leadbook/internal/config"
	"leadbook/internal/repositories"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return pool, nil
}

// NewMongo connects and pings the document store
func NewMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_URI: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}
	return client, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// schema is idempotent; each statement runs on every migrate
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		score DOUBLE PRECISION CHECK (score BETWEEN 0 AND 100),
		lead_value DOUBLE PRECISION,
		last_activity_at TIMESTAMPTZ,
		is_qualified BOOLEAN NOT NULL DEFAULT FALSE,
		created_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT leads_email_key UNIQUE (email)
	)`,
	`CREATE INDEX IF NOT EXISTS leads_created_by_created_at_idx ON leads (created_by, created_at DESC, id DESC)`,
}

// Migrate creates the postgres tables and indexes
func Migrate(ctx context.Context, db execer) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// OpenStore connects the configured backend and returns its repositories
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositories.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", zap.String("driver", cfg.StoreDriver))
		return &repositories.Store{
			Users:  repositories.NewUserRepo(pool),
			Leads:  repositories.NewLeadRepo(pool),
			Pinger: pool,
			Close:  pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		logger.Info("database connected", zap.String("driver", cfg.StoreDriver), zap.String("database", cfg.MongoDatabase))
		return &repositories.Store{
			Users:  repositories.NewMongoUserRepo(db),
			Leads:  repositories.NewMongoLeadRepo(db),
			Pinger: mongoPinger{client},
			Close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warn("mongo disconnect failed", zap.Error(err))
				}
			},
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore().Store(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// MigrateStore prepares the schema of the configured backend
func MigrateStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return Migrate(ctx, pool)

	case config.DriverMongo:
		client, err := NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		return repositories.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDatabase))
	}
	return nil
}

type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}
