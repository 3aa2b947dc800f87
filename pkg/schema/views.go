package schema

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
)

// extractViews emits CREATE OR REPLACE VIEW statements from pg_views. Views
// come last in the dump since their defining queries may reference any table
// or other view. OR REPLACE keeps the script replayable.
func (d *Dumper) extractViews(ctx context.Context) ([]string, error) {
	query := `
		SELECT v.schemaname, v.viewname, v.definition
		FROM pg_catalog.pg_views v
		WHERE v.schemaname != ALL(@ignored)
		ORDER BY v.schemaname, v.viewname
	`

	rows, err := d.q.Query(ctx, query, db.Args{"ignored": d.ignore})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query views")
	}
	defer rows.Close()

	var statements []string

	for rows.Next() {
		var schema, name, definition string
		if err := rows.Scan(&schema, &name, &definition); err != nil {
			return nil, errors.Wrap(err, "failed to scan view row")
		}

		// pg_views.definition carries a trailing semicolon; the statement
		// separator is ours to add.
		definition = strings.TrimSuffix(strings.TrimSpace(definition), ";")

		stmt := "CREATE OR REPLACE VIEW " + pgx.Identifier{schema, name}.Sanitize() + " AS\n" + definition
		if err := validate(stmt); err != nil {
			return nil, err
		}

		statements = append(statements, stmt)
	}

	return statements, errors.Wrap(rows.Err(), "failed to read view rows")
}
