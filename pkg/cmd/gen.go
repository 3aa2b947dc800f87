package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/gen"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type genParams struct {
	fx.In

	Config *config.Config
}

// genCmd creates the gen command for generating typed table accessors.
//
// The command scans the configured models directory for structs annotated
// with a steward:table directive and writes one <name>_table.gen.go file per
// table beside the sources. Generated files are overwritten on each run and
// never scanned as input.
//
// Example usage:
//
//	steward gen
func genCmd(p genParams) *cli.Command {
	return &cli.Command{
		Name:  "gen",
		Usage: "Generate typed table accessors",
		Description: `Generate table accessors from annotated record types.

A record type opts in with a directive in its doc comment:

	// steward:table app.users
	type User struct {
		ID    int64  ` + "`db:\"id,pk\"`" + `
		Email string ` + "`db:\"email\"`" + `
	}

which yields a UserTable with Insert/Get/Update/Delete/List methods running
named-parameter SQL through any steward db.Querier (pool, connection, or the
transaction inside a migration).`,
		Before: requireConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			written, err := gen.Generate(p.Config.Gen.Dir)
			if err != nil {
				return errors.Wrap(err, "failed to generate accessors")
			}

			if len(written) == 0 {
				fmt.Printf("No annotated types found in %s\n", p.Config.Gen.Dir)
				return nil
			}

			for _, path := range written {
				fmt.Printf("Wrote %s\n", path)
			}

			return nil
		},
	}
}
