package pgddl

type (
	// Expression represents a PostgreSQL expression with proper precedence
	// handling, shaped for the places DDL embeds expressions: DEFAULT
	// clauses, CHECK constraints, index elements, and index predicates.
	// Precedence levels (lowest to highest):
	// 1. CASE (searched form only, as pg_get_expr emits it)
	// 2. OR
	// 3. AND
	// 4. NOT
	// 5. Comparison (=, !=, <>, <, >, <=, >=, LIKE, ILIKE, IN, BETWEEN, IS NULL)
	// 6. Addition/Subtraction/Concatenation (+, -, ||)
	// 7. Multiplication/Division/Modulo (*, /, %)
	// 8. Unary (+, -)
	// 9. Cast (postfix ::type, chainable)
	// 10. Primary (literals, identifiers, functions, ARRAY, parentheses)
	Expression struct {
		Case *CaseExpression `parser:"@@"`
		Or   *OrExpression   `parser:"| @@"`
	}

	// OrExpression handles OR operations (lowest precedence)
	OrExpression struct {
		And  *AndExpression `parser:"@@"`
		Rest []OrRest       `parser:"@@*"`
	}

	OrRest struct {
		Op  string         `parser:"@'OR'"`
		And *AndExpression `parser:"@@"`
	}

	// AndExpression handles AND operations
	AndExpression struct {
		Not  *NotExpression `parser:"@@"`
		Rest []AndRest      `parser:"@@*"`
	}

	AndRest struct {
		Op  string         `parser:"@'AND'"`
		Not *NotExpression `parser:"@@"`
	}

	// NotExpression handles NOT operations
	NotExpression struct {
		Not        bool                  `parser:"@'NOT'?"`
		Comparison *ComparisonExpression `parser:"@@"`
	}

	// ComparisonExpression handles comparison operations and the postfix
	// IS [NOT] NULL test
	ComparisonExpression struct {
		Addition *AdditionExpression `parser:"@@"`
		Rest     *ComparisonRest     `parser:"@@?"`
		IsNull   *IsNullExpr         `parser:"@@?"`
	}

	ComparisonRest struct {
		SimpleOp  *SimpleComparison  `parser:"@@"`
		InOp      *InComparison      `parser:"| @@"`
		BetweenOp *BetweenComparison `parser:"| @@"`
	}

	// SimpleComparison handles basic comparison operations
	SimpleComparison struct {
		Op       *SimpleComparisonOp `parser:"@@"`
		Addition *AdditionExpression `parser:"@@"`
	}

	SimpleComparisonOp struct {
		Eq       bool `parser:"@'='"`
		NotEq    bool `parser:"| @'!=' | @'<>'"`
		LtEq     bool `parser:"| @'<='"`
		GtEq     bool `parser:"| @'>='"`
		Lt       bool `parser:"| @'<'"`
		Gt       bool `parser:"| @'>'"`
		Like     bool `parser:"| @'LIKE'"`
		ILike    bool `parser:"| @'ILIKE'"`
		NotLike  bool `parser:"| @('NOT' 'LIKE')"`
		NotILike bool `parser:"| @('NOT' 'ILIKE')"`
	}

	// InComparison handles IN and NOT IN operations
	InComparison struct {
		Not  bool          `parser:"@'NOT'?"`
		In   string        `parser:"'IN'"`
		Expr *InExpression `parser:"@@"`
	}

	// InExpression is the right-hand side of IN: a parenthesized list or an
	// ARRAY literal
	InExpression struct {
		List  []Expression     `parser:"'(' @@ (',' @@)* ')'"`
		Array *ArrayExpression `parser:"| @@"`
	}

	// BetweenComparison handles BETWEEN and NOT BETWEEN operations
	BetweenComparison struct {
		Not     bool               `parser:"@'NOT'?"`
		Between string             `parser:"'BETWEEN'"`
		Expr    *BetweenExpression `parser:"@@"`
	}

	// BetweenExpression holds both bounds. The AND inside is consumed here,
	// never by AndExpression.
	BetweenExpression struct {
		Low  AdditionExpression `parser:"@@"`
		And  string             `parser:"'AND'"`
		High AdditionExpression `parser:"@@"`
	}

	// AdditionExpression handles addition, subtraction, and string
	// concatenation. PostgreSQL ranks || with user operators; folding it in
	// here is close enough for validation.
	AdditionExpression struct {
		Multiplication *MultiplicationExpression `parser:"@@"`
		Rest           []AdditionRest            `parser:"@@*"`
	}

	AdditionRest struct {
		Op             string                    `parser:"@('+' | '-' | '||')"`
		Multiplication *MultiplicationExpression `parser:"@@"`
	}

	// MultiplicationExpression handles multiplication, division, and modulo
	MultiplicationExpression struct {
		Unary *UnaryExpression     `parser:"@@"`
		Rest  []MultiplicationRest `parser:"@@*"`
	}

	MultiplicationRest struct {
		Op    string           `parser:"@('*' | '/' | '%')"`
		Unary *UnaryExpression `parser:"@@"`
	}

	// UnaryExpression handles unary operators
	UnaryExpression struct {
		Op   string          `parser:"@('+' | '-')?"`
		Cast *CastExpression `parser:"@@"`
	}

	// CastExpression handles the postfix :: cast, which chains:
	// '{}'::jsonb, 'seq'::regclass, ARRAY[]::text[]::varchar[]
	CastExpression struct {
		Primary *PrimaryExpression `parser:"@@"`
		Types   []*TypeName        `parser:"(':' ':' @@)*"`
	}

	// PrimaryExpression represents the highest precedence expressions
	PrimaryExpression struct {
		Literal     *Literal         `parser:"@@"`
		Function    *FunctionCall    `parser:"| @@"`
		Array       *ArrayExpression `parser:"| @@"`
		Identifier  *IdentifierExpr  `parser:"| @@"`
		Parentheses *ParenExpression `parser:"| @@"`
	}

	// Literal represents literal values. Bare keywords like
	// CURRENT_TIMESTAMP fall through to IdentifierExpr, which is fine for
	// validation.
	Literal struct {
		StringValue *string `parser:"@String"`
		Number      *string `parser:"| @Number"`
		Boolean     *string `parser:"| @('TRUE' | 'FALSE')"`
		Null        bool    `parser:"| @'NULL'"`
	}

	// IdentifierExpr represents column references, qualified up to
	// schema.table.column
	IdentifierExpr struct {
		Schema *string `parser:"(@(Ident | QuotedIdent) '.')?"`
		Table  *string `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name   string  `parser:"@(Ident | QuotedIdent)"`
	}

	// FunctionCall represents function invocations like nextval('s'::regclass),
	// now(), count(*), or lower(email)
	FunctionCall struct {
		Schema *string       `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name   string        `parser:"@(Ident | QuotedIdent)"`
		Args   []FunctionArg `parser:"'(' (@@ (',' @@)*)? ')'"`
	}

	// FunctionArg represents arguments in function calls (can be * or expression)
	FunctionArg struct {
		Star       *string     `parser:"@'*'"`
		Expression *Expression `parser:"| @@"`
	}

	// ParenExpression represents parenthesized expressions
	ParenExpression struct {
		Expression Expression `parser:"'(' @@ ')'"`
	}

	// ArrayExpression represents ARRAY[...] literals
	ArrayExpression struct {
		Array    string       `parser:"'ARRAY' '['"`
		Elements []Expression `parser:"(@@ (',' @@)*)? ']'"`
	}

	// CaseExpression represents searched CASE expressions
	CaseExpression struct {
		Case  string       `parser:"'CASE'"`
		Whens []WhenClause `parser:"@@+"`
		Else  *Expression  `parser:"('ELSE' @@)?"`
		End   string       `parser:"'END'"`
	}

	// WhenClause represents WHEN condition THEN result
	WhenClause struct {
		When      string      `parser:"'WHEN'"`
		Condition *Expression `parser:"@@"`
		Then      string      `parser:"'THEN'"`
		Result    *Expression `parser:"@@"`
	}

	// IsNullExpr handles IS NULL and IS NOT NULL as postfix operators
	IsNullExpr struct {
		Is   string `parser:"'IS'"`
		Not  bool   `parser:"@'NOT'?"`
		Null string `parser:"'NULL'"`
	}
)
