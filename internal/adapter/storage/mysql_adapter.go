package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenMySQL opens a pooled connection and pings it. The DSN must carry
// parseTime=true so DATETIME columns scan into time.Time.
func OpenMySQL(ctx context.Context, opts MySQLOptions) (*sql.DB, error) {
	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS statuses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		hex_code VARCHAR(16) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		discount_price DECIMAL(12,2) NULL
	)`,
	`CREATE TABLE IF NOT EXISTS colors (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		hex_code VARCHAR(16) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sizes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(128) NULL,
		last_name VARCHAR(128) NULL,
		phone1 VARCHAR(32) NULL,
		phone2 VARCHAR(32) NULL,
		wilaya_id BIGINT NULL,
		commune_id BIGINT NULL,
		INDEX idx_customers_phone1 (phone1),
		INDEX idx_customers_phone2 (phone2)
	)`,
	`CREATE TABLE IF NOT EXISTS customer_order (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT NOT NULL,
		customer_id BIGINT NOT NULL,
		color_id BIGINT NULL,
		size_id BIGINT NULL,
		status_id BIGINT NULL,
		quantity INT NOT NULL DEFAULT 1,
		product_price DECIMAL(12,2) NULL,
		selling_price DECIMAL(12,2) NULL,
		delivery_price DECIMAL(12,2) NULL,
		comment TEXT NULL,
		exchange TINYINT(1) NOT NULL DEFAULT 0,
		stopdesk TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(3) NULL,
		version INT NOT NULL DEFAULT 0,
		INDEX idx_customer_order_created_at (created_at),
		INDEX idx_customer_order_status (status_id),
		INDEX idx_customer_order_product (product_id)
	)`,
}

// Migrate creates the back-office tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
