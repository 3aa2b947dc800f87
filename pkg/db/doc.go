// Package db provides the PostgreSQL connection and transaction wrapper the
// rest of steward builds on.
//
// The package wraps a pgx connection pool behind a small API: open/close,
// plain execution, named-parameter execution, scalar queries, closure-scoped
// transactions, and session advisory locks. Everything that talks to the
// database in steward (the ledger, the migration executor, the schema
// dumper, generated accessors) does so through the Querier interface, which
// is satisfied by the pool, by a dedicated connection, and by a transaction
// alike.
//
// # Usage Example
//
//	database, err := db.Open(ctx, "postgres://localhost:5432/app?sslmode=disable")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer database.Close()
//
//	// Named parameters via db.Args
//	_, err = database.Exec(ctx,
//		"INSERT INTO users (id, email) VALUES (@id, @email)",
//		db.Args{"id": 1, "email": "jane@example.com"},
//	)
//
//	// Scalar queries
//	count, err := db.Scalar[int64](ctx, database, "SELECT count(*) FROM users")
//
//	// Transactions
//	err = database.WithTx(ctx, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "ALTER TABLE users ADD COLUMN active boolean")
//		return err
//	})
//
// # Concurrency Helpers
//
// AcquireLock takes a PostgreSQL session advisory lock on a dedicated pooled
// connection and hands back a release function, and LockKey hashes a string
// (such as a qualified table name) into a stable lock key. The migration
// executor uses these to serialize whole migration batches across processes.
// IsUniqueViolation classifies SQLSTATE 23505 errors so callers can treat
// duplicate-insert races as benign.
package db
