// Package config loads the project configuration from steward.yaml.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/migrator"
	"gopkg.in/yaml.v3"
)

type (
	// Database holds connection settings for the target PostgreSQL
	// database.
	Database struct {
		// URL is the connection string, in URL or keyword/value DSN form.
		// Commands accept a --url flag which takes precedence, so projects
		// that keep credentials out of steward.yaml can leave this empty.
		URL string `yaml:"url,omitempty"`

		// MaxConns caps the connection pool size. Zero keeps the pool's
		// own default.
		MaxConns int32 `yaml:"max_conns,omitempty"`
	}

	// Ledger locates the table that records applied migrations.
	Ledger struct {
		// Schema is the schema housing the ledger table
		Schema string `yaml:"schema,omitempty"`

		// Table is the ledger table name
		Table string `yaml:"table,omitempty"`
	}

	// Migrations holds settings for migration source scaffolding.
	Migrations struct {
		// Dir is the directory containing the migrations package
		Dir string `yaml:"dir,omitempty"`
	}

	// Gen holds settings for table accessor generation.
	Gen struct {
		// Dir is the package directory scanned for annotated record types
		Dir string `yaml:"dir,omitempty"`
	}

	// Config represents the project configuration for database management.
	Config struct {
		// Database contains connection settings
		Database Database `yaml:"database"`

		// Ledger locates the applied-migrations table
		Ledger Ledger `yaml:"ledger"`

		// Migrations contains scaffolding settings
		Migrations Migrations `yaml:"migrations"`

		// Gen contains accessor generation settings
		Gen Gen `yaml:"gen"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The function expects YAML-formatted configuration data. Any field left
// unset falls back to its default, so a minimal steward.yaml remains valid.
//
// Example:
//
//	yamlData := `
//	database:
//	  url: postgres://localhost:5432/app?sslmode=disable
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Ledger table: %s.%s\n", cfg.Ledger.Schema, cfg.Ledger.Table)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal project config")
	}

	// Apply defaults for anything the file leaves unset
	if cfg.Ledger.Schema == "" {
		cfg.Ledger.Schema = consts.DefaultLedgerSchema
	}
	if cfg.Ledger.Table == "" {
		cfg.Ledger.Table = consts.DefaultLedgerTable
	}
	if cfg.Migrations.Dir == "" {
		cfg.Migrations.Dir = consts.DefaultMigrationsDir
	}
	if cfg.Gen.Dir == "" {
		cfg.Gen.Dir = consts.DefaultGenDir
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("steward.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// LedgerOptions returns the migrator options matching the configured ledger
// location.
func (c *Config) LedgerOptions() []migrator.LedgerOption {
	return []migrator.LedgerOption{
		migrator.WithSchema(c.Ledger.Schema),
		migrator.WithTable(c.Ledger.Table),
	}
}

// PoolOptions returns the db options matching the configured connection
// settings.
func (c *Config) PoolOptions() []db.Option {
	opts := []db.Option{db.WithAppName("steward")}
	if c.Database.MaxConns > 0 {
		opts = append(opts, db.WithMaxConns(c.Database.MaxConns))
	}

	return opts
}
