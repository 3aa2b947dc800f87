package project

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing/fstest"
	"text/template"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/migrator"
)

var (
	//go:embed embed/steward.yaml
	defaultConfig []byte

	//go:embed embed/migrations_doc.go.tmpl
	migrationsDoc []byte

	//go:embed embed/main.go.tmpl
	exampleMain []byte

	//go:embed embed/migration.go.tmpl
	migrationSrc string

	migrationTemplate = template.Must(template.New("migration").Parse(migrationSrc))

	image = fstest.MapFS{
		"migrations":        {Mode: os.ModeDir | consts.ModeDir},
		"models":            {Mode: os.ModeDir | consts.ModeDir},
		"db":                {Mode: os.ModeDir | consts.ModeDir},
		consts.ConfigFile:   {Data: defaultConfig},
		"migrations/doc.go": {Data: migrationsDoc},
		"db/main.go":        {Data: exampleMain},
	}
)

type (
	// Option customizes a Project.
	Option func(*Project)

	// Project manages a steward project rooted at a directory.
	Project struct {
		root string
		now  func() time.Time
	}
)

// WithClock overrides the time source used to mint migration identifiers.
// Used by tests that need deterministic file names.
func WithClock(now func() time.Time) Option {
	return func(p *Project) { p.now = now }
}

// New creates a Project for the given root directory.
//
// Example:
//
//	p := project.New("/path/to/my/project")
//	if err := p.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//
//	path, err := p.AddMigration("create users")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println("scaffolded", path)
func New(path string, opts ...Option) *Project {
	p := &Project{root: path, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Initialize sets up the project directory structure and configuration.
// This method is idempotent - it only creates missing files and directories,
// preserving any existing content.
func (p *Project) Initialize() error {
	if err := os.MkdirAll(p.root, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create project root %s", p.root)
	}

	// Walk the embedded image and create whatever is missing
	for path, entry := range image {
		fullPath := filepath.Join(p.root, path)

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create parent directory for %s", fullPath)
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write file %s", fullPath)
		}
	}

	return nil
}

// AddMigration scaffolds a new migration source file in the project's
// migrations directory and returns its path. The identifier is minted from
// the current UTC time, so files sort in creation order, and the generated
// file registers itself with the default registry at init() time.
//
// The name is normalized to snake_case ("create users" and "Create-Users"
// both become "create_users").
func (p *Project) AddMigration(name string) (string, error) {
	normalized := normalizeName(name)
	if normalized == "" {
		return "", errors.Errorf("migration name %q has no usable characters", name)
	}

	dir, err := p.migrationsDir()
	if err != nil {
		return "", err
	}

	identity := p.now().UTC().Format(migrator.IdentifierFormat) + "_" + normalized
	path := filepath.Join(p.root, dir, identity+".go")

	if _, err := os.Stat(path); err == nil {
		return "", errors.Errorf("migration file already exists: %s", path)
	}

	var buf bytes.Buffer
	err = migrationTemplate.Execute(&buf, struct {
		Package  string
		Identity string
		Func     string
		Name     string
	}{
		Package:  filepath.Base(dir),
		Identity: identity,
		Func:     funcName(normalized),
		Name:     normalized,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to render migration %s", identity)
	}

	if err := os.MkdirAll(filepath.Dir(path), consts.ModeDir); err != nil {
		return "", errors.Wrapf(err, "failed to create migrations directory %s", filepath.Dir(path))
	}

	if err := os.WriteFile(path, buf.Bytes(), consts.ModeFile); err != nil {
		return "", errors.Wrapf(err, "failed to write migration file %s", path)
	}

	return path, nil
}

// migrationsDir resolves the migrations directory from steward.yaml when
// present, falling back to the default layout.
func (p *Project) migrationsDir() (string, error) {
	path := filepath.Join(p.root, consts.ConfigFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return consts.DefaultMigrationsDir, nil
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return "", err
	}

	return cfg.Migrations.Dir, nil
}

// normalizeName converts a human-supplied migration name to snake_case:
// letters and digits are lowered, everything else collapses to a single
// underscore.
func normalizeName(name string) string {
	var b strings.Builder

	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}

		pending = true
	}

	return b.String()
}

// funcName converts a snake_case migration name to the lowerCamel function
// name used in the scaffolded file: create_users -> createUsers.
func funcName(normalized string) string {
	parts := strings.Split(normalized, "_")

	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}

		if i == 0 {
			b.WriteString(part)
			continue
		}

		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}

	name := b.String()

	// Names may start with a digit ("2fa_rollout"); identifiers may not.
	if name != "" && unicode.IsDigit(rune(name[0])) {
		name = "m" + name
	}

	return name
}
