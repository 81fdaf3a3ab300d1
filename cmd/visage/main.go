// Package main provides the visage CLI.
//
// The CLI supports:
//   - serve: Run the user directory HTTP service
//   - migrate: Apply the directory schema to PostgreSQL
//   - status: Check current migration state
//   - config: Show effective configuration
//
// serve and the database commands need database access via --db, config, or
// VISAGE_DATABASE_URL. config and version work offline.
package main

func main() {
	Execute()
}
