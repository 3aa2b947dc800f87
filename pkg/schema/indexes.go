package schema

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
)

// extractIndexes emits standalone CREATE INDEX statements from pg_indexes.
// Indexes backing PRIMARY KEY or UNIQUE constraints are skipped: those are
// already implied by the constraints inside the CREATE TABLE statements, and
// emitting them twice would make the script fail on replay.
func (d *Dumper) extractIndexes(ctx context.Context) ([]string, error) {
	query := `
		SELECT i.indexdef
		FROM pg_catalog.pg_indexes i
		WHERE i.schemaname != ALL(@ignored)
		  AND NOT EXISTS (
		    SELECT 1
		    FROM pg_catalog.pg_constraint con
		    JOIN pg_catalog.pg_class cc ON cc.oid = con.conindid
		    JOIN pg_catalog.pg_namespace cn ON cn.oid = cc.relnamespace
		    WHERE cc.relname = i.indexname AND cn.nspname = i.schemaname
		  )
		ORDER BY i.schemaname, i.tablename, i.indexname
	`

	rows, err := d.q.Query(ctx, query, db.Args{"ignored": d.ignore})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query indexes")
	}
	defer rows.Close()

	var statements []string

	for rows.Next() {
		var indexdef string
		if err := rows.Scan(&indexdef); err != nil {
			return nil, errors.Wrap(err, "failed to scan index row")
		}

		if err := validate(indexdef); err != nil {
			return nil, err
		}

		statements = append(statements, indexdef)
	}

	return statements, errors.Wrap(rows.Err(), "failed to read index rows")
}
