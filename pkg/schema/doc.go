// Package schema extracts a deployable DDL script from a live PostgreSQL
// database.
//
// The dumper walks the catalog (pg_namespace, pg_attribute, pg_constraint,
// pg_indexes, pg_views) and renders CREATE SCHEMA, CREATE TABLE, ALTER TABLE
// ... ADD CONSTRAINT, CREATE INDEX and CREATE VIEW statements in dependency
// order. Every generated statement is validated with the pgddl grammar before
// it is returned, so a dump that parses is a dump that round-trips.
//
// System schemas and the migration ledger are always excluded; additional
// schemas can be skipped with WithIgnoreSchemas.
//
// Example usage:
//
//	conn, err := db.Open(ctx, url)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	script, err := schema.NewDumper(conn).Dump(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Print(script)
package schema
