package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresPort is the port Postgres listens on inside the container.
	DefaultPostgresPort = 5432

	// startDeadline bounds how long Start waits for Postgres to accept
	// connections before giving up.
	startDeadline = 2 * time.Minute
)

type (
	// DockerOptions represents options for running Postgres in Docker.
	DockerOptions struct {
		// Version is the Postgres major version to run (default: consts.DefaultPostgresVersion).
		Version string

		// Database is the database created on first boot (default: "steward").
		Database string

		// InitScripts are SQL or shell files the container executes on first
		// boot, in the given order. Relative paths are converted to absolute.
		InitScripts []string
	}

	// Container manages a disposable Postgres instance for verifying
	// migrations against a clean database.
	Container struct {
		options   DockerOptions
		container *postgres.PostgresContainer
	}
)

// New creates a new Docker container with default options.
//
// Example:
//
//	container := docker.New()
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func New() *Container {
	return &Container{
		options: DockerOptions{},
	}
}

// NewWithOptions creates a new Docker container with custom options.
//
// Example:
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version:     "16",
//		InitScripts: []string{"testdata/seed.sql"},
//	})
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func NewWithOptions(opts DockerOptions) *Container {
	return &Container{
		options: opts,
	}
}

// Start starts a Postgres Docker container with the configured version and
// waits until it accepts connections.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = consts.DefaultPostgresVersion
	}

	database := c.options.Database
	if database == "" {
		database = "steward"
	}

	customizers := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase(database),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategyAndDeadline(
			startDeadline,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	}

	if len(c.options.InitScripts) > 0 {
		scripts := make([]string, len(c.options.InitScripts))
		for i, script := range c.options.InitScripts {
			abs, err := filepath.Abs(script)
			if err != nil {
				return errors.Wrapf(err, "failed to resolve init script path: %s", script)
			}
			scripts[i] = abs
		}

		customizers = append(customizers, postgres.WithInitScripts(scripts...))
	}

	container, err := postgres.Run(ctx,
		fmt.Sprintf("postgres:%s-alpine", version),
		customizers...,
	)
	if err != nil {
		return errors.Wrap(err, "failed to start Postgres container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the Postgres Docker container.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop Postgres container")
	}

	return nil
}

// GetDSN returns a pgx-compatible URL for connecting to the containerized
// Postgres instance. TLS is disabled; the container only ever listens on
// localhost.
func (c *Container) GetDSN(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// IsRunning returns true if the container is currently running.
func (c *Container) IsRunning() bool {
	return c.container != nil
}
