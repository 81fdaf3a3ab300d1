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

var statusDB string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current schema status",
	Long:  `Show current schema and migration status.`,
	Example: `  # Check status
  visage status --db postgres://localhost/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(statusDB)
		if err != nil {
			return err
		}

		return runStatus(dsn)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusDB, "db", "", "database URL")
}

func runStatus(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	m := visage.NewMigrator(db)

	s, err := m.Status(ctx)
	if err != nil {
		return cli.GeneralError("getting status", err)
	}

	fmt.Printf("Schema checksum:  %s\n", s.Current)
	if s.Applied {
		fmt.Println("Applied:          yes")
	} else {
		fmt.Println("Applied:          no")
	}

	if !s.Applied {
		fmt.Println("\nSchema not applied. Run 'visage migrate' to apply it.")
	} else if !s.UpToDate {
		fmt.Println("\nApplied schema differs from the current DDL.")
		fmt.Println("Run 'visage migrate' to bring the database up to date.")
	}

	return nil
}
