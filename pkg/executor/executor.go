package executor

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/migrator"
)

type (
	// Database defines the database operations required by the migration
	// executor: plain statement access for ledger reads and bootstrap,
	// transactions for atomic migration application, and advisory locks for
	// serializing concurrent runners.
	//
	// *db.DB satisfies this interface.
	Database interface {
		db.Querier
		WithTx(ctx context.Context, fn func(pgx.Tx) error) error
		AcquireLock(ctx context.Context, key int64) (func(), error)
	}

	// Executor applies pending migrations to a database.
	//
	// Each migration runs in its own transaction together with the ledger
	// entry that records it, so a migration is either fully applied and
	// recorded or has no effect at all. Batches stop at the first failure;
	// migrations already recorded in the ledger are never run again.
	//
	// Concurrent runners are safe by two independent mechanisms: a
	// session-level advisory lock serializes whole batches, and the ledger's
	// primary key turns a double-application race into a unique violation
	// that the losing transaction observes and reports as a skip.
	//
	// Example usage:
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
	//		fmt.Printf("%d %s: %s\n", result.ID, result.Name, result.Status)
	//	}
	Executor struct {
		db     Database
		source migrator.Source
		ledger *migrator.Ledger
		logger *slog.Logger
		noLock bool
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// DB is the database migrations are applied to.
		DB Database

		// Source enumerates the known migrations, usually the process-wide
		// registry (migrator.Default()).
		Source migrator.Source

		// Ledger overrides where applied migrations are recorded. Defaults
		// to migrator.NewLedger().
		Ledger *migrator.Ledger

		// Logger receives per-migration progress. Defaults to slog.Default().
		Logger *slog.Logger

		// DisableLock skips the batch advisory lock. The ledger's primary
		// key still prevents double-application; disabling the lock only
		// means concurrent runners race per migration instead of waiting
		// for each other.
		DisableLock bool
	}

	// Result describes the outcome of executing a single migration.
	Result struct {
		// ID is the migration identifier.
		ID int64

		// Name is the migration name.
		Name string

		// Status indicates the outcome of the execution.
		Status Status

		// Err contains the failure when Status is StatusFailed.
		Err error

		// Duration records how long the migration's transaction took.
		Duration time.Duration
	}

	// Status represents the outcome of a migration execution.
	Status string
)

const (
	// StatusApplied indicates the migration ran and its ledger entry committed.
	StatusApplied Status = "applied"

	// StatusSkipped indicates another process applied the migration first;
	// this run's transaction rolled back without effect.
	StatusSkipped Status = "skipped"

	// StatusFailed indicates the migration failed and was rolled back.
	StatusFailed Status = "failed"
)

// errLedgerConflict marks a unique violation raised by the ledger write, as
// opposed to one raised by the migration's own statements. Only the former
// means "another process won the race".
var errLedgerConflict = errors.New("migration already recorded by another process")

// New creates a migration executor. DB and Source are required; Ledger and
// Logger fall back to defaults when unset.
func New(cfg Config) *Executor {
	ledger := cfg.Ledger
	if ledger == nil {
		ledger = migrator.NewLedger()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		db:     cfg.DB,
		source: cfg.Source,
		ledger: ledger,
		logger: logger,
		noLock: cfg.DisableLock,
	}
}

// MigrateToLatest applies every pending migration in ascending identifier
// order and returns one Result per migration attempted.
//
// The run bootstraps the ledger, diffs the discovered migrations against the
// applied set, and executes each pending migration in its own transaction.
// The first failure aborts the batch: the failed migration is rolled back,
// its Result carries the error, and later migrations are not attempted.
//
// Unless disabled, the whole batch holds an advisory lock derived from the
// ledger's qualified name, so concurrent runners against the same ledger
// execute one at a time.
func (e *Executor) MigrateToLatest(ctx context.Context) ([]Result, error) {
	if !e.noLock {
		release, err := e.db.AcquireLock(ctx, db.LockKey(e.ledger.QualifiedName()))
		if err != nil {
			return nil, errors.Wrap(err, "failed to acquire migration lock")
		}
		defer release()
	}

	pending, err := e.plan(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(pending))

	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrap(err, "migration batch canceled")
		}

		result := e.apply(ctx, m)
		results = append(results, result)

		if result.Status == StatusFailed {
			return results, errors.Wrapf(result.Err, "migration batch aborted; %d migration(s) not attempted", len(pending)-len(results))
		}
	}

	e.logger.Info("Migration batch complete", "attempted", len(results))

	return results, nil
}

// RunSingle applies exactly one migration outside the usual batch flow. The
// per-migration contract is unchanged: the upgrade action and its ledger
// entry commit together or not at all. Migrations already recorded in the
// ledger are reported as skipped without invoking the upgrade action.
func (e *Executor) RunSingle(ctx context.Context, m migrator.Migration) (Result, error) {
	if m.Up == nil {
		err := errors.Errorf("migration %d (%s) has no upgrade action", m.ID, m.Name)
		return Result{ID: m.ID, Name: m.Name, Status: StatusFailed, Err: err}, err
	}

	if err := e.ledger.EnsureSchema(ctx, e.db); err != nil {
		return Result{ID: m.ID, Name: m.Name, Status: StatusFailed, Err: err}, err
	}

	applied, err := e.ledger.AppliedIDs(ctx, e.db)
	if err != nil {
		return Result{ID: m.ID, Name: m.Name, Status: StatusFailed, Err: err}, err
	}

	if _, ok := applied[m.ID]; ok {
		e.logger.Info("Migration already applied", "id", m.ID, "name", m.Name)
		return Result{ID: m.ID, Name: m.Name, Status: StatusSkipped}, nil
	}

	result := e.apply(ctx, m)
	if result.Status == StatusFailed {
		return result, result.Err
	}

	return result, nil
}

// Pending returns the migrations that would run if MigrateToLatest were
// invoked now, in execution order. The ledger is bootstrapped as a side
// effect so Pending works against a database that has never been migrated.
func (e *Executor) Pending(ctx context.Context) ([]migrator.Migration, error) {
	return e.plan(ctx)
}

// Applied returns the ledger's contents ordered by identifier, bootstrapping
// the ledger first so reporting works against an empty database.
func (e *Executor) Applied(ctx context.Context) ([]migrator.Entry, error) {
	if err := e.ledger.EnsureSchema(ctx, e.db); err != nil {
		return nil, err
	}

	return e.ledger.Entries(ctx, e.db)
}

// plan computes the ordered pending set: bootstrap the ledger, load the
// applied identifiers, discover the known migrations, reject duplicate
// identifiers, drop what has already run, and sort ascending.
func (e *Executor) plan(ctx context.Context) ([]migrator.Migration, error) {
	if err := e.ledger.EnsureSchema(ctx, e.db); err != nil {
		return nil, err
	}

	applied, err := e.ledger.AppliedIDs(ctx, e.db)
	if err != nil {
		return nil, err
	}

	all, err := e.source.Discover()
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover migrations")
	}

	seen := make(map[int64]string, len(all))
	pending := make([]migrator.Migration, 0, len(all))

	for _, m := range all {
		if prev, ok := seen[m.ID]; ok {
			return nil, errors.Errorf("duplicate migration identifier %d (%s and %s)", m.ID, prev, m.Name)
		}
		seen[m.ID] = m.Name

		if _, ok := applied[m.ID]; ok {
			continue
		}

		pending = append(pending, m)
	}

	slices.SortFunc(pending, func(a, b migrator.Migration) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return pending, nil
}

// apply runs one migration and its ledger write in a single transaction and
// classifies the outcome.
func (e *Executor) apply(ctx context.Context, m migrator.Migration) Result {
	start := time.Now()

	err := e.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := m.Up(ctx, tx); err != nil {
			return errors.Wrapf(err, "migration %d (%s) failed", m.ID, m.Name)
		}

		entry := migrator.Entry{ID: m.ID, Name: m.Name, ExecutedAt: time.Now().UTC()}
		if err := e.ledger.Record(ctx, tx, entry); err != nil {
			if db.IsUniqueViolation(err) {
				return errLedgerConflict
			}
			return err
		}

		return nil
	})

	result := Result{ID: m.ID, Name: m.Name, Duration: time.Since(start)}

	switch {
	case err == nil:
		result.Status = StatusApplied
		e.logger.Info("Applied migration", "id", m.ID, "name", m.Name, "duration", result.Duration)
	case errors.Is(err, errLedgerConflict):
		result.Status = StatusSkipped
		e.logger.Info("Migration applied by another process", "id", m.ID, "name", m.Name)
	default:
		result.Status = StatusFailed
		result.Err = err
		e.logger.Error("Migration failed", "id", m.ID, "name", m.Name, "err", err)
	}

	return result
}
