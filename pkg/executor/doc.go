// Package executor applies code-defined migrations to a PostgreSQL database.
//
// The executor brings a database up to date by comparing the migrations a
// Source knows about against the ledger of what has already been applied,
// then running each pending migration in ascending identifier order. It is
// the runtime half of the toolkit; pkg/migrator supplies the records, the
// registry, and the ledger it operates on.
//
// # Core Components
//
//   - Executor: the migration engine
//   - Config: construction options (database, source, ledger, lock behavior)
//   - Result: per-migration outcome with status, error, and timing
//   - Status: outcome enumeration (applied, skipped, failed)
//
// # Execution Model
//
// Every migration runs inside its own transaction, and the ledger entry that
// records it is written by that same transaction. A migration therefore
// either fully commits together with its ledger entry, or rolls back and
// leaves no trace. A batch stops at the first failure; migrations after the
// failed one are not attempted.
//
// # Usage Example
//
//	conn, err := db.Open(ctx, cfg.URL)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	exec := executor.New(executor.Config{
//		DB:     conn,
//		Source: migrator.Default(),
//	})
//
//	results, err := exec.MigrateToLatest(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, result := range results {
//		switch result.Status {
//		case executor.StatusApplied:
//			fmt.Printf("✓ %d %s (%v)\n", result.ID, result.Name, result.Duration)
//		case executor.StatusSkipped:
//			fmt.Printf("- %d %s already applied\n", result.ID, result.Name)
//		case executor.StatusFailed:
//			fmt.Printf("✗ %d %s: %v\n", result.ID, result.Name, result.Err)
//		}
//	}
//
// # Bootstrap Handling
//
// Every run bootstraps the ledger before planning: both the schema and the
// table are created with IF NOT EXISTS, so pointing the executor at a fresh
// database requires no setup step and repeated bootstraps are no-ops, even
// from concurrent processes.
//
// # Concurrency
//
// Two independent mechanisms keep concurrent runners safe:
//
//   - A session-level advisory lock, derived from the ledger's qualified
//     name, serializes whole batches. Runners against different ledgers do
//     not contend.
//   - The ledger's primary key makes the per-migration race detectable even
//     without the lock: when two processes apply the same migration, exactly
//     one ledger insert commits. The loser's unique violation rolls back its
//     transaction and is reported as StatusSkipped, not an error.
//
// The advisory lock can be disabled (Config.DisableLock) for environments
// that already serialize deployments; correctness then rests on the primary
// key alone.
package executor
