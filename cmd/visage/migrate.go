package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/visage"
	"github.com/pthm/visage/internal/cli"
)

var (
	migrateDB    string
	migrateForce bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply directory schema to database",
	Long:  `Apply the user directory schema to PostgreSQL.`,
	Example: `  # Apply schema to database
  visage migrate --db postgres://localhost/mydb

  # Force re-apply even if schema unchanged
  visage migrate --db postgres://localhost/mydb --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force := resolveBool(migrateForce)

		dsn, err := resolveDSN(migrateDB)
		if err != nil {
			return err
		}

		return runMigrate(dsn, force)
	},
}

func init() {
	f := migrateCmd.Flags()
	f.StringVar(&migrateDB, "db", "", "database URL")
	f.BoolVar(&migrateForce, "force", false, "force migration even if schema unchanged")
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	if dsn == "" {
		return "", cli.ConfigError("database URL is required (use --db or set in config)", nil)
	}
	return dsn, nil
}

func runMigrate(dsn string, force bool) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	if !quiet {
		fmt.Println("Applying directory schema...")
	}
	if verbose > 0 {
		fmt.Printf("Schema checksum: %s\n", visage.SchemaChecksum())
	}

	m := visage.NewMigrator(db)
	applied, err := m.Migrate(ctx, visage.MigrateOptions{Force: force})
	if err != nil {
		return cli.GeneralError("migration failed", err)
	}

	if !quiet {
		if applied {
			fmt.Println("Directory schema applied successfully.")
		} else {
			fmt.Println("Schema unchanged, migration skipped.")
			fmt.Println("Use --force to re-apply.")
		}
	}

	return nil
}
