package schema

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
)

// extractSchemas emits CREATE SCHEMA IF NOT EXISTS for every non-system,
// non-ignored schema. IF NOT EXISTS keeps the script replayable against a
// database where "public" (or any other schema) already exists.
func (d *Dumper) extractSchemas(ctx context.Context) ([]string, error) {
	query := `
		SELECT n.nspname
		FROM pg_catalog.pg_namespace n
		WHERE n.nspname != ALL(@ignored)
		  AND n.nspname NOT LIKE 'pg\_%'
		ORDER BY n.nspname
	`

	rows, err := d.q.Query(ctx, query, db.Args{"ignored": d.ignore})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query schemas")
	}
	defer rows.Close()

	var statements []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan schema row")
		}

		stmt := "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{name}.Sanitize()
		if err := validate(stmt); err != nil {
			return nil, err
		}

		statements = append(statements, stmt)
	}

	return statements, errors.Wrap(rows.Err(), "failed to read schema rows")
}
