package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/docker"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

const (
	devContainerName = "steward-dev"
	devCredentials   = "steward"
	devReadyTimeout  = 30 * time.Second
)

type devParams struct {
	fx.In

	Config *config.Config
}

// dev creates the dev command for managing a local development database.
//
// Unlike verify's disposable container, the dev container keeps running
// after steward exits, so applications can connect to it between
// invocations.
//
// Example usage:
//
//	steward dev up
//	steward dev up --port 5433 --postgres-version 15
//	steward dev down
func dev(p devParams) *cli.Command {
	return &cli.Command{
		Name:   "dev",
		Usage:  "Manage a local PostgreSQL development server",
		Before: requireConfig(p.Config),
		Commands: []*cli.Command{
			devUp(p),
			devDown(),
		},
	}
}

func devUp(p devParams) *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "Start the development server and apply migrations",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Host port to bind PostgreSQL to",
				Value: 5432,
			},
			&cli.StringFlag{
				Name:  "postgres-version",
				Usage: "PostgreSQL major version to run",
				Value: consts.DefaultPostgresVersion,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDevUp(ctx, cmd, p)
		},
	}
}

func devDown() *cli.Command {
	return &cli.Command{
		Name:  "down",
		Usage: "Stop and remove the development server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDevDown(ctx)
		},
	}
}

func runDevUp(ctx context.Context, cmd *cli.Command, p devParams) error {
	engine, err := newDockerEngine()
	if err != nil {
		return err
	}

	if _, err := engine.Get(ctx, devContainerName); err == nil {
		fmt.Println("Development server is already running.")
		fmt.Println("Use 'steward dev down' to stop it first.")
		return nil
	}

	port := int(cmd.Int("port"))
	img := fmt.Sprintf("postgres:%s-alpine", cmd.String("postgres-version"))

	fmt.Printf("Pulling %s...\n", img)
	if err := engine.Pull(ctx, img); err != nil {
		return err
	}

	_, err = engine.Start(ctx, docker.ContainerOptions{
		Name:  devContainerName,
		Image: img,
		Env: map[string]string{
			"POSTGRES_USER":     devCredentials,
			"POSTGRES_PASSWORD": devCredentials,
			"POSTGRES_DB":       devCredentials,
		},
		Ports: map[int]int{port: 5432},
	})
	if err != nil {
		return err
	}

	dsn := fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		devCredentials, devCredentials, port, devCredentials)

	conn, err := waitForDatabase(ctx, dsn)
	if err != nil {
		_ = engine.Stop(ctx, devContainerName)
		return err
	}
	defer conn.Close()

	results, runErr := newExecutor(conn, p.Config, false).MigrateToLatest(ctx)
	if err := reportResults(results); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	printDevDetails(dsn)

	return nil
}

func runDevDown(ctx context.Context) error {
	engine, err := newDockerEngine()
	if err != nil {
		return err
	}

	if _, err := engine.Get(ctx, devContainerName); err != nil {
		fmt.Println("No development server is currently running.")
		return nil
	}

	if err := engine.Stop(ctx, devContainerName); err != nil {
		return err
	}

	fmt.Println("Development server stopped.")

	return nil
}

func newDockerEngine() (*docker.Engine, error) {
	cl, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}

	return docker.NewEngine(cl), nil
}

// waitForDatabase polls until the freshly started server accepts
// connections. Postgres restarts once during first boot, so a single
// successful ping straight after container start is not enough.
func waitForDatabase(ctx context.Context, dsn string) (*db.DB, error) {
	deadline := time.Now().Add(devReadyTimeout)

	var lastErr error
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		conn, err := db.Open(ctx, dsn, db.WithAppName("steward-dev"))
		if err == nil {
			return conn, nil
		}

		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}

	return nil, errors.Wrapf(lastErr, "database not ready after %v", devReadyTimeout)
}

func printDevDetails(dsn string) {
	line := strings.Repeat("=", 60)

	fmt.Println()
	fmt.Println(line)
	fmt.Println("PostgreSQL Development Server Started")
	fmt.Println(line)
	fmt.Printf("DSN: %s\n", dsn)
	fmt.Println()
	fmt.Println("Use 'steward dev down' to stop the server")
	fmt.Println(line)
}
