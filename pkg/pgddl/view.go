package pgddl

type (
	// CreateViewStmt represents a CREATE VIEW statement.
	// PostgreSQL syntax:
	//   CREATE [OR REPLACE] VIEW [schema.]view_name [(column, ...)] AS query
	//
	// The defining query is captured as raw tokens rather than parsed: view
	// bodies are arbitrary SELECTs produced by pg_get_viewdef, and validating
	// the DDL envelope is all the dumper needs.
	CreateViewStmt struct {
		Create    string    `parser:"'CREATE'"`
		OrReplace bool      `parser:"@('OR' 'REPLACE')?"`
		View      string    `parser:"'VIEW'"`
		Schema    *string   `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name      string    `parser:"@(Ident | QuotedIdent)"`
		Columns   []string  `parser:"('(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')')?"`
		As        string    `parser:"'AS'"`
		Query     *ViewBody `parser:"@@"`
	}

	// ViewBody is the defining query of a view, swallowed token-by-token up
	// to the terminating semicolon. Parenthesized groups are consumed whole
	// so semicolons never appear inside Tokens.
	ViewBody struct {
		Tokens []*ViewToken `parser:"@@+"`
	}

	// ViewToken is a single token or parenthesized group within a view body.
	ViewToken struct {
		Group *ViewBody `parser:"'(' @@? ')'"`
		Text  *string   `parser:"| @(Ident | QuotedIdent | String | Number | NotEq | LtEq | GtEq | Concat | '.' | ',' | '=' | '+' | '-' | '*' | '/' | '%' | '<' | '>' | '[' | ']' | ':')"`
	}
)

// QualifiedName returns the view's schema-qualified name.
func (v *CreateViewStmt) QualifiedName() string {
	if v.Schema != nil {
		return *v.Schema + "." + v.Name
	}

	return v.Name
}
