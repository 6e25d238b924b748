package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	"form-intake/pkg/models"
)

// Client defines the interface for keeping user records in a PostgreSQL table
type Client interface {
	Put(ctx context.Context, rec models.UserRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type clientImpl struct {
	db    *sql.DB
	table string
}

// NewClient opens the database, pings it and makes sure the table exists
func NewClient(ctx context.Context, dsn, table string) (Client, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	c := &clientImpl{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}

	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("prefix", "postgres").WithField("table", table).Info("postgres client ready")
	return c, nil
}

func (c *clientImpl) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + c.table + ` (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			email     TEXT NOT NULL,
			mobile    TEXT NOT NULL,
			checkbox1 BOOLEAN NOT NULL
		)
	`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Put inserts the record or overwrites the row with the same id.
func (c *clientImpl) Put(ctx context.Context, rec models.UserRecord) error {
	query := `
		INSERT INTO ` + c.table + ` (id, name, email, mobile, checkbox1)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			mobile = EXCLUDED.mobile,
			checkbox1 = EXCLUDED.checkbox1
	`

	if _, err := c.db.ExecContext(ctx, query, rec.ID, rec.Name, rec.Email, rec.Mobile, rec.Checkbox1); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (c *clientImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (c *clientImpl) Close() error {
	return c.db.Close()
}
