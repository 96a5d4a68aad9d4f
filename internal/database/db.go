// Package database owns the MySQL connection pool the repositories
// run on. Pool sizing and timeouts arrive through Config; nothing in
// this package reads the environment.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config carries the connection parameters and pool tuning. Zero
// values for the tuning fields fall back to defaults sized for a
// single API process.
type Config struct {
	User string
	Pass string // empty allowed
	Host string
	Port string
	Name string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 5 * time.Second
	}
	return c
}

// dsn builds the driver DSN. parseTime=true maps DATETIME columns to
// time.Time and loc=UTC keeps every timestamp in UTC end to end,
// which the session expiry comparisons rely on.
func dsn(c Config) string {
	auth := c.User
	if c.Pass != "" {
		auth = c.User + ":" + c.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.Host, c.Port, c.Name)
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection with a bounded ping.
func Open(c Config) (*sql.DB, error) {
	c = c.withDefaults()

	db, err := sql.Open("mysql", dsn(c))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), c.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
