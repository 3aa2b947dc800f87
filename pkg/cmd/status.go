package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type statusParams struct {
	fx.In

	Config *config.Config
}

// status creates the status command for reconciling the migrations compiled
// into this binary against the ledger table.
//
// Example usage:
//
//	steward status --url postgres://localhost:5432/app
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show migration status",
		Description: `Display the reconciliation of registered migrations against the ledger.

Each row is either a registered migration (pending or applied) or a ledger
entry with no registered counterpart (recorded by a different binary). The
summary counts tell you at a glance whether 'steward migrate' has work to
do.`,
		Before: requireConfig(p.Config),
		Flags:  []cli.Flag{urlFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

// statusRow is one line of the reconciliation listing.
type statusRow struct {
	id        int64
	name      string
	appliedAt string
	state     string
}

func runStatus(ctx context.Context, cmd *cli.Command, p statusParams) error {
	conn, err := openDB(ctx, cmd, p.Config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer conn.Close()

	ledger := newLedger(p.Config)
	if err := ledger.EnsureSchema(ctx, conn); err != nil {
		return errors.Wrap(err, "failed to bootstrap ledger")
	}

	entries, err := ledger.Entries(ctx, conn)
	if err != nil {
		return errors.Wrap(err, "failed to read ledger")
	}

	registered, err := migrator.Default().Discover()
	if err != nil {
		return errors.Wrap(err, "failed to discover migrations")
	}

	rows, counts := reconcile(registered, entries)

	fmt.Printf("Ledger: %s\n\n", ledger.QualifiedName())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "NAME", "APPLIED AT", "STATE"})
	for _, r := range rows {
		table.Append([]string{strconv.FormatInt(r.id, 10), r.name, r.appliedAt, r.state})
	}
	table.Render()

	fmt.Println()
	fmt.Printf("Summary: %d applied, %d pending, %d unregistered\n",
		counts.applied, counts.pending, counts.unregistered)

	if counts.pending > 0 {
		fmt.Println("Run 'steward migrate' to apply pending migrations.")
	}

	return nil
}

type statusCounts struct {
	applied      int
	pending      int
	unregistered int
}

// reconcile merges the registered set with the ledger into one listing
// sorted by identifier. Ledger entries with no registered migration are
// reported rather than hidden: they usually mean the database is ahead of
// this binary.
func reconcile(registered []migrator.Migration, entries []migrator.Entry) ([]statusRow, statusCounts) {
	applied := make(map[int64]migrator.Entry, len(entries))
	for _, e := range entries {
		applied[e.ID] = e
	}

	var (
		rows   []statusRow
		counts statusCounts
	)

	known := make(map[int64]struct{}, len(registered))
	for _, m := range registered {
		known[m.ID] = struct{}{}

		if e, ok := applied[m.ID]; ok {
			rows = append(rows, statusRow{
				id:        m.ID,
				name:      m.Name,
				appliedAt: e.ExecutedAt.Format("2006-01-02 15:04:05 UTC"),
				state:     "applied",
			})
			counts.applied++
			continue
		}

		rows = append(rows, statusRow{id: m.ID, name: m.Name, state: "pending"})
		counts.pending++
	}

	for _, e := range entries {
		if _, ok := known[e.ID]; ok {
			continue
		}

		rows = append(rows, statusRow{
			id:        e.ID,
			name:      e.Name,
			appliedAt: e.ExecutedAt.Format("2006-01-02 15:04:05 UTC"),
			state:     "unregistered",
		})
		counts.unregistered++
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	return rows, counts
}
