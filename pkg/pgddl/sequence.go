package pgddl

type (
	// CreateSequenceStmt represents a CREATE SEQUENCE statement.
	// PostgreSQL syntax:
	//   CREATE SEQUENCE [IF NOT EXISTS] [schema.]name
	//     [AS data_type] [INCREMENT [BY] n] [MINVALUE n | NO MINVALUE]
	//     [MAXVALUE n | NO MAXVALUE] [START [WITH] n] [CACHE n] [[NO] CYCLE]
	CreateSequenceStmt struct {
		Create      string            `parser:"'CREATE' 'SEQUENCE'"`
		IfNotExists bool              `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Schema      *string           `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name        string            `parser:"@(Ident | QuotedIdent)"`
		Clauses     []*SequenceClause `parser:"@@*"`
	}

	// SequenceClause is a single option in a CREATE SEQUENCE statement.
	// Numeric options capture an optional sign since INCREMENT BY may be
	// negative.
	SequenceClause struct {
		As          *TypeName `parser:"'AS' @@"`
		IncrementBy *string   `parser:"| 'INCREMENT' 'BY'? @('-'? Number)"`
		MinValue    *string   `parser:"| 'MINVALUE' @('-'? Number)"`
		MaxValue    *string   `parser:"| 'MAXVALUE' @('-'? Number)"`
		StartWith   *string   `parser:"| 'START' 'WITH'? @('-'? Number)"`
		Cache       *string   `parser:"| 'CACHE' @Number"`
		NoMinValue  bool      `parser:"| @('NO' 'MINVALUE')"`
		NoMaxValue  bool      `parser:"| @('NO' 'MAXVALUE')"`
		NoCycle     bool      `parser:"| @('NO' 'CYCLE')"`
		Cycle       bool      `parser:"| @'CYCLE'"`
	}
)
