package pgddl

type (
	// CreateIndexStmt represents a CREATE INDEX statement, matching the
	// canonical form pg_get_indexdef produces.
	// PostgreSQL syntax:
	//   CREATE [UNIQUE] INDEX [IF NOT EXISTS] [name] ON [schema.]table
	//     [USING method] (element [, ...])
	//     [INCLUDE (column [, ...])]
	//     [WHERE predicate]
	CreateIndexStmt struct {
		Create      string         `parser:"'CREATE'"`
		Unique      bool           `parser:"@'UNIQUE'?"`
		Index       string         `parser:"'INDEX'"`
		IfNotExists bool           `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Name        *string        `parser:"@(Ident | QuotedIdent)?"`
		On          string         `parser:"'ON'"`
		Schema      *string        `parser:"(@(Ident | QuotedIdent) '.')?"`
		Table       string         `parser:"@(Ident | QuotedIdent)"`
		Using       *string        `parser:"('USING' @Ident)?"`
		Columns     []*IndexColumn `parser:"'(' @@ (',' @@)* ')'"`
		Include     []string       `parser:"('INCLUDE' '(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')')?"`
		Where       *Expression    `parser:"('WHERE' @@)?"`
	}

	// IndexColumn is one indexed element: a column or expression with an
	// optional collation. Modifiers collects whatever trails the expression
	// (operator class, ASC/DESC, NULLS FIRST/LAST) as written; validation
	// does not need to tell them apart.
	IndexColumn struct {
		Expr      *Expression `parser:"@@"`
		Collate   *string     `parser:"('COLLATE' @(Ident | QuotedIdent | String))?"`
		Modifiers []string    `parser:"@(Ident | QuotedIdent)*"`
	}
)
