// Package pgddl parses a practical subset of PostgreSQL DDL. It exists to
// validate the statements steward emits and consumes (ledger bootstrap,
// schema dumps, project schema files), not to be a complete SQL frontend:
// parsing proves a statement is well-formed before it is written to disk or
// shipped to a reviewer.
package pgddl

import (
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// pgLexer defines the lexer for PostgreSQL DDL. Strings and quoted
	// identifiers escape their delimiter by doubling it, per PostgreSQL.
	pgLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `--[^\r\n]*`},
		{Name: "MultilineComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
		{Name: "String", Pattern: `'([^']|'')*'`},
		{Name: "QuotedIdent", Pattern: `"([^"]|"")*"`},
		{Name: "Number", Pattern: `\d+(\.\d*)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
		{Name: "NotEq", Pattern: `!=|<>`},
		{Name: "LtEq", Pattern: `<=`},
		{Name: "GtEq", Pattern: `>=`},
		{Name: "Concat", Pattern: `\|\|`},
		{Name: "Punct", Pattern: `[(),.;=+\-*/%<>\[\]:]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	// parser is the participle parser instance for PostgreSQL DDL
	parser = participle.MustBuild[DDL](
		participle.Lexer(pgLexer),
		participle.Elide("Comment", "MultilineComment", "Whitespace"),
		participle.UseLookahead(4),
		participle.CaseInsensitive("Ident"),
	)
)

type (
	// DDL is a sequence of statements separated by semicolons. A trailing
	// semicolon is optional, which keeps single-statement validation (the
	// common case) ergonomic.
	DDL struct {
		Statements []*Statement `parser:"( @@ ';'* )*"`
	}

	// Statement represents any supported DDL statement
	Statement struct {
		CreateSchema    *CreateSchemaStmt    `parser:"@@"`
		CreateExtension *CreateExtensionStmt `parser:"| @@"`
		CreateSequence  *CreateSequenceStmt  `parser:"| @@"`
		CreateTable     *CreateTableStmt     `parser:"| @@"`
		CreateIndex     *CreateIndexStmt     `parser:"| @@"`
		CreateView      *CreateViewStmt      `parser:"| @@"`
		AlterTable      *AlterTableStmt      `parser:"| @@"`
		CommentOn       *CommentOnStmt       `parser:"| @@"`
	}

	// CreateSchemaStmt represents a CREATE SCHEMA statement.
	// PostgreSQL syntax:
	//   CREATE SCHEMA [IF NOT EXISTS] schema_name [AUTHORIZATION role_name]
	CreateSchemaStmt struct {
		Create        string  `parser:"'CREATE' 'SCHEMA'"`
		IfNotExists   bool    `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Name          string  `parser:"@(Ident | QuotedIdent)"`
		Authorization *string `parser:"('AUTHORIZATION' @(Ident | QuotedIdent))?"`
	}

	// CreateExtensionStmt represents a CREATE EXTENSION statement.
	// PostgreSQL syntax:
	//   CREATE EXTENSION [IF NOT EXISTS] extension_name [WITH] [SCHEMA schema_name]
	CreateExtensionStmt struct {
		Create      string  `parser:"'CREATE' 'EXTENSION'"`
		IfNotExists bool    `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Name        string  `parser:"@(Ident | QuotedIdent)"`
		Schema      *string `parser:"('WITH'? 'SCHEMA' @(Ident | QuotedIdent))?"`
	}

	// CommentOnStmt represents a COMMENT ON statement.
	// PostgreSQL syntax:
	//   COMMENT ON { TABLE | COLUMN | SCHEMA | INDEX | EXTENSION } name IS { 'text' | NULL }
	CommentOnStmt struct {
		Comment string      `parser:"'COMMENT' 'ON'"`
		Kind    string      `parser:"@('TABLE' | 'COLUMN' | 'SCHEMA' | 'INDEX' | 'EXTENSION')"`
		Target  *DottedName `parser:"@@"`
		Is      string      `parser:"'IS'"`
		Value   *string     `parser:"(@String | 'NULL')"`
	}

	// DottedName is a possibly-qualified name: col, table.col, or
	// schema.table.col.
	DottedName struct {
		Parts []string `parser:"@(Ident | QuotedIdent) ('.' @(Ident | QuotedIdent))*"`
	}
)

// GetLexer returns the lexer definition, letting tests build parsers for
// grammar fragments in isolation.
func GetLexer() *lexer.StatefulDefinition {
	return pgLexer
}

// Parse parses PostgreSQL DDL statements from an io.Reader.
//
// Example usage:
//
//	file, err := os.Open("schema.sql")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	ddl, err := pgddl.Parse(file)
//	if err != nil {
//		log.Fatalf("Parse error: %v", err)
//	}
func Parse(reader io.Reader) (*DDL, error) {
	ddl, err := parser.Parse("", reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse DDL")
	}

	return ddl, nil
}

// ParseString parses PostgreSQL DDL statements from a string.
//
// Example usage:
//
//	ddl, err := pgddl.ParseString(`
//		CREATE SCHEMA IF NOT EXISTS "steward";
//		CREATE TABLE "steward"."migrations" (
//			id bigint NOT NULL PRIMARY KEY,
//			name text NOT NULL,
//			executed_at timestamptz NOT NULL
//		);
//	`)
//	if err != nil {
//		log.Fatalf("Parse error: %v", err)
//	}
//
//	for _, stmt := range ddl.Statements {
//		if stmt.CreateTable != nil {
//			fmt.Printf("CREATE TABLE: %s\n", stmt.CreateTable.Name)
//		}
//	}
//
// Returns an error if the DDL contains syntax errors or unsupported
// constructs.
func ParseString(sql string) (*DDL, error) {
	return Parse(strings.NewReader(sql))
}
