// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"quotation-service/internal/common/config"
)

// PostgresClient is the pool behind the postgres record sink.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres builds a pool through the pq connector. Nothing is dialed until
// the first statement, so an unreachable server does not block startup.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, errors.New("postgres host and database are required")
	}
	connector, err := pq.NewConnector(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}

	db := sql.OpenDB(connector)
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an already opened handle (sqlmock in tests).
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

// Exec runs a statement that returns no rows. Postgres errors keep their
// SQLSTATE in the message.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := c.DB.ExecContext(ctx, query, args...)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return nil, fmt.Errorf("%s (%s): %w", pqErr.Message, pqErr.Code, err)
	}
	return res, err
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
