package migrator

import (
	"sync"

	"github.com/pkg/errors"
)

type (
	// Source enumerates the migrations known to the running process. Discover
	// returns every known migration without ordering or filtering; deciding
	// what runs is the executor's job. Implementations must be deterministic
	// for a fixed binary.
	Source interface {
		Discover() ([]Migration, error)
	}

	// Registry is the standard Source: an explicit, in-process list that
	// migration files append to at init() time. Explicit registration means
	// the set of known migrations is fixed at compile time; there is no
	// directory scanning and nothing to drift out of sync with the binary.
	//
	// Construction errors passed to Add are held and reported by Discover,
	// so a malformed migration surfaces as a hard failure before anything
	// executes instead of being silently dropped.
	Registry struct {
		mu         sync.Mutex
		migrations []Migration
		errs       []error
	}
)

// NewRegistry creates an empty registry. Most programs use the process-wide
// Default registry instead and only create their own for tests or for
// embedding migrations from multiple independent components.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a migration to the registry.
func (r *Registry) Register(m Migration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.migrations = append(r.migrations, m)
}

// Add registers the result of a two-value constructor call, keeping
// registration sites to a single line:
//
//	reg.Add(migrator.NewNamed("_202401151230_create_users", createUsers))
//
// When construction failed, the error is recorded instead of the migration
// and reported by Discover.
func (r *Registry) Add(m Migration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.errs = append(r.errs, err)
		return
	}

	r.migrations = append(r.migrations, m)
}

// Discover returns a snapshot of all registered migrations in registration
// order. If any registration failed, Discover fails instead of returning a
// partial set.
func (r *Registry) Discover() ([]Migration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.errs) > 0 {
		if n := len(r.errs); n > 1 {
			return nil, errors.Wrapf(r.errs[0], "%d migrations failed to register; first failure", n)
		}

		return nil, r.errs[0]
	}

	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)

	return out, nil
}

// Len reports the number of successfully registered migrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.migrations)
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry that scaffolded migration files
// register with. It is created on first use and lives for the life of the
// process.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})

	return defaultRegistry
}

// Register appends a migration to the default registry.
func Register(m Migration) {
	Default().Register(m)
}

// Add registers a two-value construction with the default registry. This is
// the one-liner scaffolded migration files use:
//
//	func init() {
//	    migrator.Add(migrator.NewNamed("_202401151230_create_users", createUsers))
//	}
func Add(m Migration, err error) {
	Default().Add(m, err)
}
