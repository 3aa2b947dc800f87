package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/project"
	"github.com/urfave/cli/v3"
)

// initCmd creates the init command for scaffolding a new steward project.
//
// Example usage:
//
//	# Scaffold in the current directory
//	steward init
//
//	# Scaffold somewhere else
//	steward --dir /path/to/project init
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new steward project",
		Description: `Initialize a steward project in the target directory.

Creates steward.yaml, a migrations package for scaffolded migration files,
a models directory for annotated record types, and an example db/main.go
showing how to build a migration binary with this project's migrations
compiled in.

Initialization is idempotent: rerunning it only creates what is missing and
never overwrites existing files.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// --dir already changed the working directory
			if err := project.New(".").Initialize(); err != nil {
				return errors.Wrap(err, "failed to initialize project")
			}

			fmt.Println("Project initialized.")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  1. Set database.url in steward.yaml (or export STEWARD_URL)")
			fmt.Println("  2. Scaffold your first migration: steward new <name>")
			fmt.Println("  3. Apply it: steward migrate")

			return nil
		},
	}
}
