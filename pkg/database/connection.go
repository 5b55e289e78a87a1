package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/logger"
)

// connectAttempts bounds the startup wait for Postgres. Services usually come
// up alongside the database container, so the first pings can fail.
const (
	connectAttempts = 5
	connectRetryGap = 2 * time.Second
	healthTimeout   = 5 * time.Second
)

// DB wraps the shared Postgres pool used by the repositories
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// NewConnection opens the Postgres pool and waits for the database to answer
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=5",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := waitForDatabase(pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Infof("Database connection established to %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	return &DB{DB: pool, logger: log}, nil
}

// waitForDatabase pings until the database answers or the attempts run out
func waitForDatabase(pool *sql.DB, log *logger.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		lastErr = pool.PingContext(ctx)
		cancel()

		if lastErr == nil {
			return nil
		}

		log.Warnf("Database not ready (attempt %d/%d): %v", attempt, connectAttempts, lastErr)
		if attempt < connectAttempts {
			time.Sleep(connectRetryGap)
		}
	}

	return fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, lastErr)
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
