// Package migrator provides the building blocks for code-defined PostgreSQL
// schema migrations: the migration record itself, the registry migrations
// announce themselves to, and the ledger that tracks which migrations have
// been applied to a database.
//
// Key features:
//   - Code-defined migrations: each migration is a Go function receiving the
//     transaction it runs in, so migrations are type-checked and can use the
//     full database API rather than raw SQL files
//   - Identity parsing from conventional "_{identifier}_{name}" declarations
//   - An explicit registration model (no directory scanning): migration files
//     register themselves with a Registry at init() time
//   - A persistent ledger with a race-safe bootstrap and a primary key that
//     makes double-application detectable under concurrency
//
// Migrations are declared in their own files and registered with the default
// registry:
//
//	package migrations
//
//	import (
//	    "context"
//
//	    "github.com/jackc/pgx/v5"
//	    "github.com/pseudomuto/steward/pkg/migrator"
//	)
//
//	func init() {
//	    migrator.Add(migrator.NewNamed("_202401151230_create_users", createUsers))
//	}
//
//	func createUsers(ctx context.Context, tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, `CREATE TABLE users (id bigint PRIMARY KEY, email text NOT NULL)`)
//	    return err
//	}
//
// The executor package consumes a Source (usually the default registry) and a
// Ledger to bring a database up to date. This package deliberately knows
// nothing about ordering or filtering; deciding what runs, and in what order,
// is the executor's job.
package migrator
