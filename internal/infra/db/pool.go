// Package db holds settings shared by the SQL repositories.
package db

import (
	"database/sql"
	"time"
)

// Pool sizes the database/sql connection pool. Zero fields use the defaults.
type Pool struct {
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// Apply sets the pool limits on db.
func (p Pool) Apply(db *sql.DB) {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = 25
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = 10
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(min(p.MaxIdleConns, p.MaxOpenConns))
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
}
