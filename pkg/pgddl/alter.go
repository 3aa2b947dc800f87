package pgddl

type (
	// AlterTableStmt represents an ALTER TABLE statement.
	// PostgreSQL syntax:
	//   ALTER TABLE [IF EXISTS] [ONLY] [schema.]table_name action [, action ...]
	AlterTableStmt struct {
		Alter    string         `parser:"'ALTER' 'TABLE'"`
		IfExists bool           `parser:"@('IF' 'EXISTS')?"`
		Only     bool           `parser:"@'ONLY'?"`
		Schema   *string        `parser:"(@(Ident | QuotedIdent) '.')?"`
		Name     string         `parser:"@(Ident | QuotedIdent)"`
		Actions  []*AlterAction `parser:"@@ (',' @@)*"`
	}

	// AlterAction is a single ALTER TABLE action. Order matters: RENAME TO
	// must be tried before RENAME COLUMN with an elided COLUMN keyword, and
	// ADD CONSTRAINT before ADD COLUMN, since the shorter forms would
	// otherwise swallow the keyword as a name.
	AlterAction struct {
		AddConstraint  *AddConstraintAction  `parser:"@@"`
		AddColumn      *AddColumnAction      `parser:"| @@"`
		DropConstraint *DropConstraintAction `parser:"| @@"`
		DropColumn     *DropColumnAction     `parser:"| @@"`
		AlterColumn    *AlterColumnAction    `parser:"| @@"`
		RenameTo       *RenameToAction       `parser:"| @@"`
		RenameColumn   *RenameColumnAction   `parser:"| @@"`
	}

	// AddConstraintAction represents ADD [CONSTRAINT name] constraint
	AddConstraintAction struct {
		Add        string           `parser:"'ADD'"`
		Constraint *TableConstraint `parser:"@@"`
		NotValid   bool             `parser:"@('NOT' 'VALID')?"`
	}

	// AddColumnAction represents ADD [COLUMN] [IF NOT EXISTS] column_def
	AddColumnAction struct {
		Add         string     `parser:"'ADD' 'COLUMN'?"`
		IfNotExists bool       `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Column      *ColumnDef `parser:"@@"`
	}

	// DropConstraintAction represents DROP CONSTRAINT [IF EXISTS] name
	DropConstraintAction struct {
		Drop     string  `parser:"'DROP' 'CONSTRAINT'"`
		IfExists bool    `parser:"@('IF' 'EXISTS')?"`
		Name     string  `parser:"@(Ident | QuotedIdent)"`
		Behavior *string `parser:"@('CASCADE' | 'RESTRICT')?"`
	}

	// DropColumnAction represents DROP [COLUMN] [IF EXISTS] name
	DropColumnAction struct {
		Drop     string  `parser:"'DROP' 'COLUMN'?"`
		IfExists bool    `parser:"@('IF' 'EXISTS')?"`
		Name     string  `parser:"@(Ident | QuotedIdent)"`
		Behavior *string `parser:"@('CASCADE' | 'RESTRICT')?"`
	}

	// AlterColumnAction represents ALTER [COLUMN] name operation
	AlterColumnAction struct {
		Alter string         `parser:"'ALTER' 'COLUMN'?"`
		Name  string         `parser:"@(Ident | QuotedIdent)"`
		Op    *AlterColumnOp `parser:"@@"`
	}

	// AlterColumnOp is the operation applied to a column by ALTER COLUMN
	AlterColumnOp struct {
		Type        *AlterColumnType `parser:"@@"`
		SetDefault  *Expression      `parser:"| 'SET' 'DEFAULT' @@"`
		DropDefault bool             `parser:"| @('DROP' 'DEFAULT')"`
		SetNotNull  bool             `parser:"| @('SET' 'NOT' 'NULL')"`
		DropNotNull bool             `parser:"| @('DROP' 'NOT' 'NULL')"`
	}

	// AlterColumnType represents TYPE new_type [USING expr]
	AlterColumnType struct {
		Type  *TypeName   `parser:"'TYPE' @@"`
		Using *Expression `parser:"('USING' @@)?"`
	}

	// RenameToAction represents RENAME TO new_name
	RenameToAction struct {
		Rename string `parser:"'RENAME' 'TO'"`
		Name   string `parser:"@(Ident | QuotedIdent)"`
	}

	// RenameColumnAction represents RENAME [COLUMN] old_name TO new_name
	RenameColumnAction struct {
		Rename string `parser:"'RENAME' 'COLUMN'?"`
		From   string `parser:"@(Ident | QuotedIdent)"`
		To     string `parser:"'TO' @(Ident | QuotedIdent)"`
	}
)
