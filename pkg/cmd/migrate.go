package cmd

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/executor"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type migrateParams struct {
	fx.In

	Config *config.Config
}

// migrate creates the migrate command for applying pending migrations.
//
// The command reconciles the migrations registered in this binary against
// the ledger table and applies whatever is pending, in ascending identifier
// order, one transaction per migration. The ledger entry commits in the
// same transaction as the migration's statements, so every migration either
// fully applies and is recorded, or has no effect.
//
// Command flags:
//   - --url, -u: PostgreSQL connection string (or database.url from config)
//   - --only: apply a single registered migration by identifier
//   - --no-lock: skip the batch advisory lock
//
// Example usage:
//
//	# Apply all pending migrations
//	steward migrate --url postgres://localhost:5432/app
//
//	# Apply one specific migration
//	steward migrate --only 202401151230
//
//	# Concurrent-friendly run relying on the ledger's primary key alone
//	steward migrate --no-lock
func migrate(p migrateParams) *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"apply"},
		Usage:   "Apply pending migrations",
		Description: `Apply pending migrations to the target database.

Migrations run in ascending identifier order, each in its own transaction
combining the schema change with its ledger entry. The first failure rolls
back the failing migration and aborts the batch; everything already
committed stays committed. Migrations recorded in the ledger are never run
again.

By default the whole batch holds an advisory lock so concurrent runners
execute one at a time. With --no-lock, runners race per migration and the
ledger's primary key decides the winner; the loser reports a skip.`,
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			urlFlag,
			&cli.Int64Flag{
				Name:  "only",
				Usage: "Apply a single migration by identifier",
			},
			&cli.BoolFlag{
				Name:  "no-lock",
				Usage: "Skip the batch advisory lock",
				Value: false,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMigrate(ctx, cmd, p)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command, p migrateParams) error {
	only := cmd.Int64("only")
	noLock := cmd.Bool("no-lock")

	conn, err := openDB(ctx, cmd, p.Config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer conn.Close()

	exec := newExecutor(conn, p.Config, noLock)

	if only != 0 {
		return runOnly(ctx, exec, only)
	}

	slog.Info("Starting migration batch", "ledger", newLedger(p.Config).QualifiedName(), "no_lock", noLock)

	results, runErr := exec.MigrateToLatest(ctx)

	// Report whatever ran before surfacing the batch error
	if err := reportResults(results); err != nil {
		return err
	}

	return runErr
}

// runOnly applies exactly one registered migration.
func runOnly(ctx context.Context, exec *executor.Executor, id int64) error {
	m, err := findMigration(id)
	if err != nil {
		return err
	}

	result, err := exec.RunSingle(ctx, m)
	if reportErr := reportResults([]executor.Result{result}); reportErr != nil {
		return reportErr
	}

	return err
}

// findMigration resolves an identifier against the process-wide registry.
func findMigration(id int64) (migrator.Migration, error) {
	all, err := migrator.Default().Discover()
	if err != nil {
		return migrator.Migration{}, errors.Wrap(err, "failed to discover migrations")
	}

	for _, m := range all {
		if m.ID == id {
			return m, nil
		}
	}

	return migrator.Migration{}, errors.Errorf("no registered migration with identifier %d (%d registered)", id, len(all))
}
