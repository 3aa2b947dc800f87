package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type dumpParams struct {
	fx.In

	Config *config.Config
}

// dump creates the dump command for extracting a database's schema as DDL.
//
// The dump covers schemas, tables (with constraints and defaults), indexes
// and views, ordered so the script replays cleanly on an empty database.
// steward's own ledger schema is excluded. Every statement is validated
// against steward's DDL grammar before anything is written, so a dump is
// either well-formed or fails loudly.
//
// Example usage:
//
//	# Print the schema to stdout
//	steward dump --url postgres://localhost:5432/app
//
//	# Write it to a file
//	steward dump --url postgres://localhost:5432/app --out schema.sql
func dump(p dumpParams) *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Dump the database schema as DDL",
		Flags: []cli.Flag{
			urlFlag,
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the dump to a file instead of stdout",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDump(ctx, cmd, p)
		},
	}
}

func runDump(ctx context.Context, cmd *cli.Command, p dumpParams) error {
	conn, err := openDB(ctx, cmd, p.Config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer conn.Close()

	script, err := schema.NewDumper(conn).Dump(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to dump schema")
	}

	if out := cmd.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(script), consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write %s", out)
		}

		fmt.Printf("Schema written to %s\n", out)
		return nil
	}

	fmt.Print(script)

	return nil
}
