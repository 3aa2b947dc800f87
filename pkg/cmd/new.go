package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/project"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type newParams struct {
	fx.In

	Config *config.Config
}

// newCmd creates the new command for scaffolding a migration source file.
//
// The file lands in the configured migrations directory, named
// <id>_<name>.go with the identifier minted from the current UTC time, and
// registers itself with the process-wide registry at init() time. The body
// is a stub for the author to fill in.
//
// Example usage:
//
//	steward new create_users
//	steward new "add orders index"
func newCmd(p newParams) *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Scaffold a new migration file",
		ArgsUsage: "<name>",
		Description: `Scaffold a migration source file in the migrations directory.

The name is normalized to snake_case and combined with a timestamp-derived
identifier, so files sort in creation order and each migration declares a
unique identity. The scaffolded file registers itself at init() time; it
takes effect once compiled into a binary (the steward binary for projects
using the bundled CLI, or the project's own db/main.go).`,
		Before: requireConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(name) == "" {
				return errors.New("migration name required, e.g. 'steward new create_users'")
			}

			path, err := project.New(".").AddMigration(name)
			if err != nil {
				return errors.Wrap(err, "failed to scaffold migration")
			}

			fmt.Printf("Created %s\n", path)

			return nil
		},
	}
}
