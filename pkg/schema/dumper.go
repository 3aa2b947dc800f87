package schema

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/pgddl"
)

// systemSchemas are never part of a dump. The ledger schema is excluded as
// well: the dump describes the application's schema, and replaying a ledger
// table into a fresh database would desynchronize it from the real one.
var systemSchemas = []string{"pg_catalog", "information_schema", "pg_toast"}

type (
	// Dumper extracts DDL from a live database via a db.Querier.
	Dumper struct {
		q      db.Querier
		ignore []string
	}

	// DumpOption customizes dump behavior.
	DumpOption func(*Dumper)
)

// WithIgnoreSchemas excludes additional schemas from the dump, e.g. a
// relocated ledger schema or a vendored extension schema.
func WithIgnoreSchemas(schemas ...string) DumpOption {
	return func(d *Dumper) {
		d.ignore = append(d.ignore, schemas...)
	}
}

// NewDumper creates a Dumper reading from q. System schemas and the default
// ledger schema are always ignored.
func NewDumper(q db.Querier, opts ...DumpOption) *Dumper {
	d := &Dumper{
		q:      q,
		ignore: append(append([]string{}, systemSchemas...), consts.DefaultLedgerSchema),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dump extracts the database's schema as a single DDL script.
//
// Statements are emitted in dependency order: schemas first, then tables with
// their columns and key constraints, then foreign key and check constraints
// (as ALTER TABLE, so tables may reference each other regardless of creation
// order), then indexes, then views.
func (d *Dumper) Dump(ctx context.Context) (string, error) {
	extractors := []struct {
		name string
		fn   func(context.Context) ([]string, error)
	}{
		{"schemas", d.extractSchemas},
		{"tables", d.extractTables},
		{"constraints", d.extractConstraints},
		{"indexes", d.extractIndexes},
		{"views", d.extractViews},
	}

	var statements []string

	for _, e := range extractors {
		stmts, err := e.fn(ctx)
		if err != nil {
			return "", errors.Wrapf(err, "failed to extract %s", e.name)
		}

		statements = append(statements, stmts...)
	}

	var buf strings.Builder
	for _, stmt := range statements {
		buf.WriteString(stmt)
		buf.WriteString(";\n\n")
	}

	script := buf.String()

	// A dump that fails to parse is a dumper bug; refuse to return it.
	if _, err := pgddl.ParseString(script); err != nil {
		return "", errors.Wrap(err, "generated dump failed validation")
	}

	return script, nil
}

// validate parses a single generated statement, wrapping grammar failures
// with the offending SQL for debugging.
func validate(stmt string) error {
	if _, err := pgddl.ParseString(stmt); err != nil {
		return errors.Wrapf(err, "generated invalid DDL (statement: %s)", stmt)
	}

	return nil
}
