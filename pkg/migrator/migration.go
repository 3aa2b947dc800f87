package migrator

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// IdentifierFormat is the time layout used to mint migration identifiers
// (YYYYMMDDHHmm, e.g. 202401151230). The layout is a convention that keeps
// identifiers readable and naturally ordered; any positive integer is a
// valid identifier.
const IdentifierFormat = "200601021504"

type (
	// UpFunc is the body of a migration. It receives the transaction the
	// migration runs in; every statement it issues commits or rolls back
	// together with the ledger entry recording the migration.
	UpFunc func(ctx context.Context, tx pgx.Tx) error

	// Migration is a single schema change: a unique integer identifier that
	// determines execution order, a human-readable name, and the upgrade
	// action to run.
	Migration struct {
		// ID is the unique identifier. By convention identifiers are minted
		// from IdentifierFormat, but ordering only requires that they are
		// positive and strictly increasing over time.
		ID int64

		// Name describes the change (e.g. "create_users"). Recorded in the
		// ledger alongside the identifier for reporting.
		Name string

		// Up performs the schema change.
		Up UpFunc
	}
)

// New creates a migration from an explicit identifier and name.
func New(id int64, name string, up UpFunc) (Migration, error) {
	switch {
	case id <= 0:
		return Migration{}, errors.Errorf("migration identifier must be positive, got %d", id)
	case name == "":
		return Migration{}, errors.Errorf("migration %d has no name", id)
	case up == nil:
		return Migration{}, errors.Errorf("migration %d (%s) has no upgrade action", id, name)
	}

	return Migration{ID: id, Name: name, Up: up}, nil
}

// NewNamed creates a migration from a conventional declaration of the form
// "_{identifier}_{name}", as produced by `steward new`.
//
// Example usage:
//
//	m, err := migrator.NewNamed("_202401151230_create_users", createUsers)
//	// m.ID = 202401151230, m.Name = "create_users"
func NewNamed(declared string, up UpFunc) (Migration, error) {
	id, name, err := ParseIdentity(declared)
	if err != nil {
		return Migration{}, err
	}

	return New(id, name, up)
}

// MustNamed is NewNamed that panics when the declaration is malformed. It is
// meant for init()-time registration in scaffolded migration files, where a
// bad declaration is a configuration error that must surface before any
// migration executes.
func MustNamed(declared string, up UpFunc) Migration {
	m, err := NewNamed(declared, up)
	if err != nil {
		panic(err)
	}

	return m
}

// ParseIdentity splits a declaration of the form "_{identifier}_{name}" into
// its identifier and name. The leading underscore is optional; the identifier
// must be a positive integer; the name is everything after the first
// underscore following the identifier and may itself contain underscores.
func ParseIdentity(declared string) (int64, string, error) {
	s := strings.TrimPrefix(declared, "_")

	sep := strings.IndexByte(s, '_')
	if sep <= 0 {
		return 0, "", errors.Errorf("migration declaration %q does not match _{identifier}_{name}", declared)
	}

	id, err := strconv.ParseInt(s[:sep], 10, 64)
	if err != nil {
		return 0, "", errors.Wrapf(err, "migration declaration %q has a non-numeric identifier", declared)
	}

	if id <= 0 {
		return 0, "", errors.Errorf("migration declaration %q must have a positive identifier", declared)
	}

	name := s[sep+1:]
	if name == "" {
		return 0, "", errors.Errorf("migration declaration %q is missing a name", declared)
	}

	return id, name, nil
}
