// Package cmd provides CLI commands for the steward tool.
//
// This package implements the command-line interface for steward, covering
// project scaffolding, migration execution, status reporting, schema dumps
// and table accessor generation against PostgreSQL.
//
// # Available Commands
//
//	steward init                         # Scaffold a new steward project
//	steward new <name>                   # Scaffold a migration source file
//	steward migrate --url <url>          # Apply pending migrations
//	steward status --url <url>           # Reconcile registry against ledger
//	steward dump --url <url>             # Dump the database schema as DDL
//	steward gen                          # Generate table accessors
//	steward verify                       # Run the batch against a throwaway database
//	steward dev up|down                  # Manage a local development database
//
// # Command Structure
//
// Each command is implemented as a function returning a *cli.Command,
// following the urfave/cli/v3 pattern, and registered with the fx graph
// through Module. The steward binary discovers migrations from the
// process-wide registry; a project builds its own binary by blank-importing
// its migrations package and reusing Module (see `steward init`'s scaffolded
// db/main.go).
//
// # Global Options
//
// All commands support global flags:
//   - --dir, -d: project directory (defaults to current directory)
//   - --help, -h: display command help
//   - --version: display version information
package cmd
