package schema

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
)

type (
	// column is one table column as read from pg_attribute.
	column struct {
		name     string
		dataType string
		notNull  bool
		identity string  // pg_attribute.attidentity: "", "a" (always), "d" (by default)
		dflt     *string // pg_get_expr of the column default, nil when absent
	}

	// table accumulates the pieces of one CREATE TABLE statement.
	table struct {
		schema      string
		name        string
		columns     []column
		constraints []string // named PRIMARY KEY / UNIQUE constraint defs
	}
)

func (t *table) key() string {
	return t.schema + "." + t.name
}

// extractTables renders one CREATE TABLE per ordinary table: columns with
// their canonical types (format_type), NOT NULL markers, identity clauses and
// defaults, followed by the table's PRIMARY KEY and UNIQUE constraints as
// named table-level elements. Foreign keys and checks are emitted separately
// by extractConstraints so inter-table references never depend on table
// order.
func (d *Dumper) extractTables(ctx context.Context) ([]string, error) {
	tables, order, err := d.loadColumns(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.loadKeyConstraints(ctx, tables); err != nil {
		return nil, err
	}

	statements := make([]string, 0, len(order))

	for _, key := range order {
		stmt := renderTable(tables[key])
		if err := validate(stmt); err != nil {
			return nil, err
		}

		statements = append(statements, stmt)
	}

	return statements, nil
}

// loadColumns reads every column of every ordinary table, grouped by table in
// catalog order. The returned slice preserves the (schema, table) ordering of
// the query so dumps are deterministic.
func (d *Dumper) loadColumns(ctx context.Context) (map[string]*table, []string, error) {
	query := `
		SELECT n.nspname, c.relname, a.attname,
		       pg_catalog.format_type(a.atttypid, a.atttypmod),
		       a.attnotnull, a.attidentity,
		       pg_catalog.pg_get_expr(ad.adbin, ad.adrelid)
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
		WHERE c.relkind = 'r'
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		  AND n.nspname != ALL(@ignored)
		ORDER BY n.nspname, c.relname, a.attnum
	`

	rows, err := d.q.Query(ctx, query, db.Args{"ignored": d.ignore})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to query table columns")
	}
	defer rows.Close()

	tables := make(map[string]*table)
	var order []string

	for rows.Next() {
		var (
			t   table
			col column
		)
		if err := rows.Scan(&t.schema, &t.name, &col.name, &col.dataType, &col.notNull, &col.identity, &col.dflt); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan column row")
		}

		existing, ok := tables[t.key()]
		if !ok {
			existing = &table{schema: t.schema, name: t.name}
			tables[t.key()] = existing
			order = append(order, t.key())
		}

		existing.columns = append(existing.columns, col)
	}

	return tables, order, errors.Wrap(rows.Err(), "failed to read column rows")
}

// loadKeyConstraints attaches PRIMARY KEY and UNIQUE constraint definitions
// to their tables. The definitions come straight from pg_get_constraintdef,
// which renders the exact column lists including multi-column keys.
func (d *Dumper) loadKeyConstraints(ctx context.Context, tables map[string]*table) error {
	query := `
		SELECT n.nspname, c.relname, con.conname,
		       pg_catalog.pg_get_constraintdef(con.oid)
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE con.contype IN ('p', 'u')
		  AND n.nspname != ALL(@ignored)
		ORDER BY n.nspname, c.relname, con.conname
	`

	rows, err := d.q.Query(ctx, query, db.Args{"ignored": d.ignore})
	if err != nil {
		return errors.Wrap(err, "failed to query key constraints")
	}
	defer rows.Close()

	for rows.Next() {
		var schema, tableName, name, def string
		if err := rows.Scan(&schema, &tableName, &name, &def); err != nil {
			return errors.Wrap(err, "failed to scan key constraint row")
		}

		t, ok := tables[schema+"."+tableName]
		if !ok {
			continue
		}

		t.constraints = append(t.constraints, "CONSTRAINT "+pgx.Identifier{name}.Sanitize()+" "+def)
	}

	return errors.Wrap(rows.Err(), "failed to read key constraint rows")
}

// extractConstraints emits foreign key and check constraints as ALTER TABLE
// ... ADD CONSTRAINT statements, after every table exists.
func (d *Dumper) extractConstraints(ctx context.Context) ([]string, error) {
	query := `
		SELECT n.nspname, c.relname, con.conname,
		       pg_catalog.pg_get_constraintdef(con.oid)
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE con.contype IN ('f', 'c')
		  AND n.nspname != ALL(@ignored)
		ORDER BY n.nspname, c.relname, con.conname
	`

	rows, err := d.q.Query(ctx, query, db.Args{"ignored": d.ignore})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query constraints")
	}
	defer rows.Close()

	var statements []string

	for rows.Next() {
		var schema, tableName, name, def string
		if err := rows.Scan(&schema, &tableName, &name, &def); err != nil {
			return nil, errors.Wrap(err, "failed to scan constraint row")
		}

		stmt := "ALTER TABLE " + pgx.Identifier{schema, tableName}.Sanitize() +
			" ADD CONSTRAINT " + pgx.Identifier{name}.Sanitize() + " " + def
		if err := validate(stmt); err != nil {
			return nil, err
		}

		statements = append(statements, stmt)
	}

	return statements, errors.Wrap(rows.Err(), "failed to read constraint rows")
}

func renderTable(t *table) string {
	var buf strings.Builder

	buf.WriteString("CREATE TABLE ")
	buf.WriteString(pgx.Identifier{t.schema, t.name}.Sanitize())
	buf.WriteString(" (")

	elements := make([]string, 0, len(t.columns)+len(t.constraints))
	for _, col := range t.columns {
		elements = append(elements, renderColumn(col))
	}
	elements = append(elements, t.constraints...)

	for i, el := range elements {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		buf.WriteString(el)
	}

	buf.WriteString("\n)")

	return buf.String()
}

func renderColumn(col column) string {
	var buf strings.Builder

	buf.WriteString(pgx.Identifier{col.name}.Sanitize())
	buf.WriteString(" ")
	buf.WriteString(col.dataType)

	if col.notNull {
		buf.WriteString(" NOT NULL")
	}

	switch col.identity {
	case "a":
		buf.WriteString(" GENERATED ALWAYS AS IDENTITY")
	case "d":
		buf.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}

	if col.dflt != nil && col.identity == "" {
		buf.WriteString(" DEFAULT ")
		buf.WriteString(*col.dflt)
	}

	return buf.String()
}
