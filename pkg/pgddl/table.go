package pgddl

type (
	// CreateTableStmt represents a CREATE TABLE statement.
	// PostgreSQL syntax:
	//   CREATE TABLE [IF NOT EXISTS] [schema.]table_name (
	//     column_name data_type [column_constraint ...],
	//     ...
	//     [, table_constraint ...]
	//   )
	CreateTableStmt struct {
		Create      string          `parser:"'CREATE' 'TABLE'"`
		IfNotExists bool            `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Schema      *string         `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name        string          `parser:"@(Ident | QuotedIdent)"`
		Elements    []*TableElement `parser:"'(' (@@ (',' @@)*)? ')'"`
	}

	// TableElement is a single comma-separated item in a CREATE TABLE body,
	// either a column definition or a table-level constraint. Constraints are
	// tried first since they open with a reserved word.
	TableElement struct {
		Constraint *TableConstraint `parser:"@@"`
		Column     *ColumnDef       `parser:"| @@"`
	}

	// ColumnDef represents a column definition within CREATE TABLE
	ColumnDef struct {
		Name        string              `parser:"@(Ident | QuotedIdent)"`
		Type        *TypeName           `parser:"@@"`
		Constraints []*ColumnConstraint `parser:"@@*"`
	}

	// ColumnConstraint represents an inline column constraint.
	// PostgreSQL syntax:
	//   [NOT NULL | NULL | PRIMARY KEY | UNIQUE | DEFAULT expr |
	//    REFERENCES table [(column)] [ON DELETE action] [ON UPDATE action] |
	//    CHECK (expr) | GENERATED {ALWAYS | BY DEFAULT} AS IDENTITY]
	ColumnConstraint struct {
		NotNull    bool             `parser:"@('NOT' 'NULL')"`
		Null       bool             `parser:"| @'NULL'"`
		PrimaryKey bool             `parser:"| @('PRIMARY' 'KEY')"`
		Unique     bool             `parser:"| @'UNIQUE'"`
		Default    *Expression      `parser:"| 'DEFAULT' @@"`
		References *RefTarget       `parser:"| 'REFERENCES' @@"`
		Check      *CheckConstraint `parser:"| @@"`
		Generated  *GeneratedClause `parser:"| @@"`
	}

	// GeneratedClause represents an identity or generated column clause.
	// PostgreSQL syntax:
	//   GENERATED {ALWAYS | BY DEFAULT} AS IDENTITY
	//   GENERATED ALWAYS AS (expr) STORED
	GeneratedClause struct {
		Generated string      `parser:"'GENERATED'"`
		Always    bool        `parser:"( @'ALWAYS'"`
		ByDefault bool        `parser:"| @('BY' 'DEFAULT') )"`
		As        string      `parser:"'AS'"`
		Identity  bool        `parser:"( @'IDENTITY'"`
		Expr      *Expression `parser:"| '(' @@ ')' 'STORED' )"`
	}

	// TableConstraint represents a table-level constraint, optionally named.
	// PostgreSQL syntax:
	//   [CONSTRAINT constraint_name]
	//   {PRIMARY KEY (columns) | UNIQUE (columns) |
	//    FOREIGN KEY (columns) REFERENCES table [(columns)] |
	//    CHECK (expr)}
	TableConstraint struct {
		Name *string         `parser:"('CONSTRAINT' @(Ident | QuotedIdent))?"`
		Kind *ConstraintKind `parser:"@@"`
	}

	// ConstraintKind is the body of a table constraint
	ConstraintKind struct {
		PrimaryKey *PrimaryKeyConstraint `parser:"@@"`
		Unique     *UniqueConstraint     `parser:"| @@"`
		ForeignKey *ForeignKeyConstraint `parser:"| @@"`
		Check      *CheckConstraint      `parser:"| @@"`
	}

	// PrimaryKeyConstraint represents PRIMARY KEY (column, ...)
	PrimaryKeyConstraint struct {
		Key     string   `parser:"'PRIMARY' 'KEY'"`
		Columns []string `parser:"'(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')'"`
	}

	// UniqueConstraint represents UNIQUE (column, ...)
	UniqueConstraint struct {
		Unique  string   `parser:"'UNIQUE'"`
		Columns []string `parser:"'(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')'"`
	}

	// ForeignKeyConstraint represents FOREIGN KEY (column, ...) REFERENCES ...
	ForeignKeyConstraint struct {
		Key     string     `parser:"'FOREIGN' 'KEY'"`
		Columns []string   `parser:"'(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')'"`
		Target  *RefTarget `parser:"'REFERENCES' @@"`
	}

	// RefTarget is the referenced side of a foreign key: the target table,
	// optional column list, and any referential actions.
	RefTarget struct {
		Schema  *string      `parser:"(@(Ident | QuotedIdent) '.')?"`
		Table   string       `parser:"@(Ident | QuotedIdent)"`
		Columns []string     `parser:"('(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')')?"`
		Actions []*RefAction `parser:"@@*"`
	}

	// RefAction represents ON DELETE/ON UPDATE referential actions
	RefAction struct {
		On     string `parser:"'ON'"`
		Event  string `parser:"@('DELETE' | 'UPDATE')"`
		Action string `parser:"@('CASCADE' | 'RESTRICT' | 'NO' 'ACTION' | 'SET' 'NULL' | 'SET' 'DEFAULT')"`
	}

	// CheckConstraint represents CHECK (expr)
	CheckConstraint struct {
		Check string      `parser:"'CHECK'"`
		Expr  *Expression `parser:"'(' @@ ')'"`
	}

	// TypeName represents a PostgreSQL type reference, covering the canonical
	// spellings format_type produces: bigint, text, timestamptz,
	// character varying(255), numeric(10,2), timestamp with time zone,
	// double precision, integer[].
	TypeName struct {
		Base      *BaseType `parser:"@@"`
		Args      []string  `parser:"('(' @Number (',' @Number)* ')')?"`
		TimeZone  *string   `parser:"@(('WITH' | 'WITHOUT') 'TIME' 'ZONE')?"`
		ArrayDims []string  `parser:"@('[' ']')*"`
	}

	// BaseType is the type name itself. The multi-word SQL standard names get
	// their own alternatives; everything else is a possibly schema-qualified
	// identifier.
	BaseType struct {
		DoublePrecision bool           `parser:"@('DOUBLE' 'PRECISION')"`
		CharVarying     bool           `parser:"| @('CHARACTER' 'VARYING')"`
		BitVarying      bool           `parser:"| @('BIT' 'VARYING')"`
		Named           *QualifiedName `parser:"| @@"`
	}

	// QualifiedName is a name with an optional schema qualifier
	QualifiedName struct {
		Schema *string `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name   string  `parser:"@(Ident | QuotedIdent)"`
	}
)
