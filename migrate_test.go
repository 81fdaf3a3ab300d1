package visage_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pthm/visage"
	visagesql "github.com/pthm/visage/sql"
)

const checkChecksumSQL = "SELECT 1 FROM visage_migrations WHERE schema_checksum = $1"
const recordChecksumSQL = "INSERT INTO visage_migrations (schema_checksum) VALUES ($1) ON CONFLICT DO NOTHING"

func newMockMigrator(t *testing.T) (*visage.Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return visage.NewMigrator(db), mock
}

func TestSchemaChecksum(t *testing.T) {
	if visage.SchemaChecksum() == "" {
		t.Error("checksum should not be empty")
	}
	if visage.SchemaChecksum() != visage.SchemaChecksum() {
		t.Error("checksum should be stable")
	}
}

func TestMigrate_FirstRun(t *testing.T) {
	m, mock := newMockMigrator(t)
	checksum := visage.SchemaChecksum()

	// Bookkeeping table does not exist yet: first run.
	mock.ExpectQuery(checkChecksumSQL).
		WithArgs(checksum).
		WillReturnError(&fakePGError{code: "42P01"})
	mock.ExpectExec(visagesql.SchemaSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordChecksumSQL).
		WithArgs(checksum).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := m.Migrate(context.Background(), visage.MigrateOptions{})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !applied {
		t.Error("first run should apply the DDL")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMigrate_SkipsWhenUpToDate(t *testing.T) {
	m, mock := newMockMigrator(t)
	checksum := visage.SchemaChecksum()

	mock.ExpectQuery(checkChecksumSQL).
		WithArgs(checksum).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	applied, err := m.Migrate(context.Background(), visage.MigrateOptions{})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if applied {
		t.Error("matching checksum should skip the DDL")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMigrate_ForceReapplies(t *testing.T) {
	m, mock := newMockMigrator(t)
	checksum := visage.SchemaChecksum()

	// Force skips the checksum probe entirely.
	mock.ExpectExec(visagesql.SchemaSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordChecksumSQL).
		WithArgs(checksum).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := m.Migrate(context.Background(), visage.MigrateOptions{Force: true})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !applied {
		t.Error("forced migration should apply the DDL")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStatus(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		m, mock := newMockMigrator(t)
		mock.ExpectQuery(checkChecksumSQL).
			WithArgs(visage.SchemaChecksum()).
			WillReturnError(&fakePGError{code: "42P01"})

		s, err := m.Status(context.Background())
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if s.Applied || s.UpToDate {
			t.Errorf("fresh database should report nothing applied: %+v", s)
		}
		if s.Current == "" {
			t.Error("Current checksum should always be reported")
		}
	})

	t.Run("up to date", func(t *testing.T) {
		m, mock := newMockMigrator(t)
		mock.ExpectQuery(checkChecksumSQL).
			WithArgs(visage.SchemaChecksum()).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		s, err := m.Status(context.Background())
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if !s.Applied || !s.UpToDate {
			t.Errorf("recorded checksum should report up to date: %+v", s)
		}
	})

	t.Run("stale schema", func(t *testing.T) {
		m, mock := newMockMigrator(t)
		mock.ExpectQuery(checkChecksumSQL).
			WithArgs(visage.SchemaChecksum()).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		s, err := m.Status(context.Background())
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if !s.Applied || s.UpToDate {
			t.Errorf("missing checksum with existing table should report stale: %+v", s)
		}
	})
}
