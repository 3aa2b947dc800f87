// Package gen derives typed table accessors from annotated Go structs.
//
// A struct opts in with a directive in its doc comment:
//
//	// User is a registered account.
//	//
//	// steward:table app.users
//	type User struct {
//		ID        int64     `db:"id,pk"`
//		Email     string    `db:"email"`
//		CreatedAt time.Time `db:"created_at"`
//		Internal  string    `db:"-"`
//	}
//
// Fields map to columns through db tags (snake_case of the field name when
// untagged), ",pk" marks key columns, and "-" excludes a field. For each
// annotated struct the generator writes <struct>_table.gen.go next to the
// source: a <Struct>Table accessor with Insert, Get, Update, Delete and List
// built on db.Querier named-parameter execution and pgx struct mapping.
//
// Generation is a pure compile-time transform: the output depends only on the
// scanned source, never on a database, so it is deterministic and golden-
// testable.
package gen
