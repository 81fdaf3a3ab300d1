package visage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	visagesql "github.com/pthm/visage/sql"
)

// Migrator applies the directory schema to PostgreSQL.
// The migrator is idempotent - safe to run on every application startup.
//
// Applied schema checksums are recorded in the visage_migrations table, so an
// unchanged schema is skipped without re-executing DDL. Use Force to reapply
// anyway, e.g. after manually repairing a broken database.
type Migrator struct {
	db Execer
}

// NewMigrator creates a new schema migrator.
// The Execer is typically *sql.DB but can be *sql.Tx for testing.
func NewMigrator(db Execer) *Migrator {
	return &Migrator{db: db}
}

// SchemaChecksum returns the checksum of the embedded schema DDL.
func SchemaChecksum() string {
	sum := sha256.Sum256([]byte(visagesql.SchemaSQL))
	return hex.EncodeToString(sum[:])
}

// MigrateOptions controls migration behavior.
type MigrateOptions struct {
	// Force re-applies the DDL even if the recorded checksum matches.
	Force bool
}

// Migrate applies the embedded DDL and records its checksum.
// Returns (false, nil) when the schema was already up to date and nothing ran.
func (m *Migrator) Migrate(ctx context.Context, opts MigrateOptions) (bool, error) {
	checksum := SchemaChecksum()

	if !opts.Force {
		applied, err := m.applied(ctx, checksum)
		if err != nil && !IsMissingTableErr(err) {
			// A missing bookkeeping table just means first run.
			return false, err
		}
		if applied {
			return false, nil
		}
	}

	if err := m.ApplyDDL(ctx); err != nil {
		return false, err
	}

	_, err := m.db.ExecContext(ctx,
		"INSERT INTO visage_migrations (schema_checksum) VALUES ($1) ON CONFLICT DO NOTHING",
		checksum,
	)
	if err != nil {
		return false, fmt.Errorf("recording migration: %w", err)
	}

	return true, nil
}

// ApplyDDL executes the embedded schema DDL unconditionally.
// The DDL itself is idempotent (IF NOT EXISTS throughout), so this is safe to
// call on a populated database.
func (m *Migrator) ApplyDDL(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, visagesql.SchemaSQL); err != nil {
		return fmt.Errorf("applying schema.sql: %w", err)
	}
	return nil
}

// MigrationStatus describes the current migration state of a database.
type MigrationStatus struct {
	// Current is the checksum of the embedded schema DDL in this binary.
	Current string
	// Applied is true when the bookkeeping table exists at all.
	Applied bool
	// UpToDate is true when Current has been recorded.
	UpToDate bool
}

// Status reports whether the embedded schema has been applied.
// A database without the bookkeeping table reports Applied=false rather than
// an error, since that is the expected state before the first migration.
func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	status := MigrationStatus{Current: SchemaChecksum()}

	upToDate, err := m.applied(ctx, status.Current)
	if err != nil {
		if IsMissingTableErr(err) {
			return status, nil
		}
		return status, err
	}

	status.Applied = true
	status.UpToDate = upToDate
	return status, nil
}

// applied reports whether the given checksum is recorded.
func (m *Migrator) applied(ctx context.Context, checksum string) (bool, error) {
	var one int
	err := m.db.QueryRowContext(ctx,
		"SELECT 1 FROM visage_migrations WHERE schema_checksum = $1",
		checksum,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		if sqlState(err) == pgUndefinedTable {
			return false, fmt.Errorf("%w: %v", ErrMissingTable, err)
		}
		return false, fmt.Errorf("checking migration state: %w", err)
	}
	return true, nil
}
