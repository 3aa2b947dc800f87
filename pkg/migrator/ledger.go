package migrator

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/db"
)

type (
	// Entry is one row of the migration ledger: a migration that has been
	// applied to the database.
	Entry struct {
		// ID is the identifier of the applied migration.
		ID int64

		// Name is the migration's name at the time it was applied.
		Name string

		// ExecutedAt is when the migration's transaction recorded the entry,
		// in UTC.
		ExecutedAt time.Time
	}

	// Ledger reads and writes the persistent record of applied migrations.
	// It holds only the table placement; every operation runs against the
	// Querier it is given, which lets callers run ledger writes inside the
	// same transaction as the migration they record.
	//
	// Example usage:
	//
	//	ledger := migrator.NewLedger(migrator.WithSchema("internal"))
	//	if err := ledger.EnsureSchema(ctx, conn); err != nil {
	//	    return err
	//	}
	//	applied, err := ledger.AppliedIDs(ctx, conn)
	Ledger struct {
		schema string
		table  string
	}

	// LedgerOption customizes where the ledger table lives.
	LedgerOption func(*Ledger)
)

// WithSchema overrides the schema that houses the ledger table.
func WithSchema(schema string) LedgerOption {
	return func(l *Ledger) { l.schema = schema }
}

// WithTable overrides the ledger table name.
func WithTable(table string) LedgerOption {
	return func(l *Ledger) { l.table = table }
}

// NewLedger creates a ledger stored at "steward"."migrations" unless
// overridden with WithSchema/WithTable.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		schema: consts.DefaultLedgerSchema,
		table:  consts.DefaultLedgerTable,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// QualifiedName returns the quoted, schema-qualified ledger table name,
// e.g. `"steward"."migrations"`.
func (l *Ledger) QualifiedName() string {
	return pgx.Identifier{l.schema, l.table}.Sanitize()
}

// EnsureSchema creates the ledger schema and table if they do not exist.
// Safe to call on every run and from concurrent processes: both statements
// use IF NOT EXISTS, and the duplicate-key errors Postgres can still raise
// when two sessions create the same object simultaneously are treated as
// success. The table's primary key doubles as the uniqueness guarantee that
// makes double-application detectable.
func (l *Ledger) EnsureSchema(ctx context.Context, q db.Querier) error {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{l.schema}.Sanitize(),
		"CREATE TABLE IF NOT EXISTS " + l.QualifiedName() + ` (
			id bigint NOT NULL PRIMARY KEY,
			name text NOT NULL,
			executed_at timestamptz NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := q.Exec(ctx, stmt); err != nil && !db.IsUniqueViolation(err) {
			return errors.Wrapf(err, "failed to bootstrap ledger %s", l.QualifiedName())
		}
	}

	return nil
}

// AppliedIDs returns the set of migration identifiers recorded in the ledger.
func (l *Ledger) AppliedIDs(ctx context.Context, q db.Querier) (map[int64]struct{}, error) {
	rows, err := q.Query(ctx, "SELECT id FROM "+l.QualifiedName())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load applied migration ids")
	}
	defer rows.Close()

	applied := make(map[int64]struct{})

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan applied migration id")
		}

		applied[id] = struct{}{}
	}

	return applied, errors.Wrap(rows.Err(), "failed to read applied migration ids")
}

// Entries returns every ledger row ordered by identifier, with timestamps
// normalized to UTC.
func (l *Ledger) Entries(ctx context.Context, q db.Querier) ([]Entry, error) {
	rows, err := q.Query(ctx, "SELECT id, name, executed_at FROM "+l.QualifiedName()+" ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ledger entries")
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.ExecutedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger entry")
		}

		e.ExecutedAt = e.ExecutedAt.UTC()
		entries = append(entries, e)
	}

	return entries, errors.Wrap(rows.Err(), "failed to read ledger entries")
}

// Record inserts one entry. The insert is deliberately plain: recording an
// identifier that already exists must fail with the primary key violation
// rather than upsert, since that violation is how a concurrent runner learns
// another process applied the migration first. Callers classify the failure
// with db.IsUniqueViolation.
func (l *Ledger) Record(ctx context.Context, q db.Querier, e Entry) error {
	_, err := q.Exec(ctx,
		"INSERT INTO "+l.QualifiedName()+" (id, name, executed_at) VALUES (@id, @name, @executed_at)",
		db.Args{"id": e.ID, "name": e.Name, "executed_at": e.ExecutedAt.UTC()},
	)

	return errors.Wrapf(err, "failed to record migration %d", e.ID)
}
