package postgres

import "time"

// Config holds PostgreSQL connection settings.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxConns is the maximum pool size.
	MaxConns int32

	// MinConns is the minimum number of idle connections.
	MinConns int32

	// MaxConnLifetime bounds how long a connection may live.
	MaxConnLifetime time.Duration

	// MigrateOnStart applies schema migrations during New.
	MigrateOnStart bool
}

// defaults fills in zero-value fields.
func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
}
