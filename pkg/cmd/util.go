package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/executor"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// urlFlag is shared by every command that talks to a database.
var urlFlag = &cli.StringFlag{
	Name:    "url",
	Aliases: []string{"u"},
	Usage:   "PostgreSQL connection string",
	Sources: cli.EnvVars("STEWARD_URL", "DATABASE_URL"),
	Config: cli.StringConfig{
		TrimSpace: true,
	},
}

// resolveURL returns the connection string from the --url flag (or its
// environment sources), falling back to database.url in steward.yaml.
func resolveURL(cmd *cli.Command, cfg *config.Config) (string, error) {
	if url := cmd.String("url"); url != "" {
		return url, nil
	}

	if cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL, nil
	}

	return "", errors.Errorf("no database url; pass --url or set database.url in %s", consts.ConfigFile)
}

// openDB connects to the database a command targets.
func openDB(ctx context.Context, cmd *cli.Command, cfg *config.Config) (*db.DB, error) {
	url, err := resolveURL(cmd, cfg)
	if err != nil {
		return nil, err
	}

	opts := []db.Option{db.WithAppName("steward")}
	if cfg != nil {
		opts = cfg.PoolOptions()
	}

	return db.Open(ctx, url, opts...)
}

// newLedger builds the ledger at its configured location.
func newLedger(cfg *config.Config) *migrator.Ledger {
	if cfg == nil {
		return migrator.NewLedger()
	}

	return migrator.NewLedger(cfg.LedgerOptions()...)
}

// newExecutor builds an executor over the process-wide registry.
func newExecutor(d executor.Database, cfg *config.Config, noLock bool) *executor.Executor {
	return executor.New(executor.Config{
		DB:          d,
		Source:      migrator.Default(),
		Ledger:      newLedger(cfg),
		DisableLock: noLock,
	})
}

// reportResults prints per-migration outcomes and a summary. The returned
// error is the first failure, so callers can simply return it to fail the
// command.
func reportResults(results []executor.Result) error {
	if len(results) == 0 {
		fmt.Println("No pending migrations; database is up to date.")
		return nil
	}

	var (
		applied, skipped, failed int
		firstErr                 error
	)

	fmt.Println()
	for _, r := range results {
		switch r.Status {
		case executor.StatusApplied:
			fmt.Printf("  ✅ %d %s applied in %v\n", r.ID, r.Name, r.Duration.Round(time.Millisecond))
			applied++

		case executor.StatusSkipped:
			fmt.Printf("  ⏭  %d %s (already applied by another process)\n", r.ID, r.Name)
			skipped++

		case executor.StatusFailed:
			fmt.Printf("  ❌ %d %s failed after %v\n", r.ID, r.Name, r.Duration.Round(time.Millisecond))
			if r.Err != nil {
				fmt.Printf("     Error: %v\n", r.Err)
				if firstErr == nil {
					firstErr = r.Err
				}
			}
			failed++
		}
	}

	fmt.Println()
	fmt.Printf("Summary: %d applied, %d skipped, %d failed\n", applied, skipped, failed)

	if failed > 0 && firstErr == nil {
		firstErr = errors.New("migration batch failed")
	}

	return firstErr
}
