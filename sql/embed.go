// Package sql provides embedded SQL files for visage infrastructure.
package sql

import (
	_ "embed"
)

// SchemaSQL contains the directory table definitions and indexes: users,
// friends, privacy_settings, and the migration bookkeeping table.
// Applied via CREATE TABLE IF NOT EXISTS for idempotence.
//
// The SQL is embedded at compile time, so the application binary carries all
// necessary schema components without runtime file dependencies.
//
//go:embed schema.sql
var SchemaSQL string
