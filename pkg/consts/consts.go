package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the name of the project configuration file
	ConfigFile = "steward.yaml"

	// DefaultLedgerSchema is the schema that houses the migration ledger table
	DefaultLedgerSchema = "steward"

	// DefaultLedgerTable is the table that records applied migrations
	DefaultLedgerTable = "migrations"

	// DefaultMigrationsDir is the directory scaffolded migration sources are written to
	DefaultMigrationsDir = "migrations"

	// DefaultMigrationsPackage is the package name used for scaffolded migrations
	DefaultMigrationsPackage = "migrations"

	// DefaultGenDir is the package directory scanned for annotated record types
	DefaultGenDir = "models"

	// DefaultPostgresVersion is the PostgreSQL version used for disposable databases
	DefaultPostgresVersion = "16"
)
