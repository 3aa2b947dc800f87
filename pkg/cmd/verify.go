package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/docker"
	"github.com/pseudomuto/steward/pkg/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type verifyParams struct {
	fx.In

	Config *config.Config
}

// verify creates the verify command for proving migrations apply cleanly.
//
// The command starts a disposable PostgreSQL container, runs the full
// migration batch against it, and reports the results. Nothing touches the
// configured database, which makes verify safe for CI.
//
// Command flags:
//   - --postgres-version: PostgreSQL major version to verify against
//   - --dump: print the resulting schema after a successful run
//
// Example usage:
//
//	steward verify
//	steward verify --postgres-version 15 --dump
func verify(p verifyParams) *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Run all migrations against a throwaway database",
		Description: `Verify that a fresh database migrates cleanly.

Starts a disposable PostgreSQL container, applies every registered
migration in order, and reports the results. With --dump, the resulting
schema is printed after a successful run so it can be reviewed or diffed.

Requires a running Docker daemon.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "postgres-version",
				Usage: "PostgreSQL major version to verify against",
				Value: consts.DefaultPostgresVersion,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "Print the resulting schema after a successful run",
				Value: false,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runVerify(ctx, cmd, p)
		},
	}
}

func runVerify(ctx context.Context, cmd *cli.Command, p verifyParams) error {
	container := docker.NewWithOptions(docker.DockerOptions{
		Version: cmd.String("postgres-version"),
	})

	fmt.Println("Starting disposable PostgreSQL container...")

	if err := container.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start container")
	}
	defer func() { _ = container.Stop(ctx) }()

	dsn, err := container.GetDSN(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get container DSN")
	}

	conn, err := db.Open(ctx, dsn, db.WithAppName("steward-verify"))
	if err != nil {
		return errors.Wrap(err, "failed to connect to container")
	}
	defer conn.Close()

	exec := newExecutor(conn, p.Config, false)

	results, runErr := exec.MigrateToLatest(ctx)
	if err := reportResults(results); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if cmd.Bool("dump") {
		script, err := schema.NewDumper(conn).Dump(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to dump verified schema")
		}

		fmt.Println()
		fmt.Print(script)
	}

	fmt.Println()
	fmt.Println("✅ All migrations apply cleanly to a fresh database.")

	return nil
}
