package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pseudomuto/steward/pkg/cmd/testutil"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/docker"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/stretchr/testify/require"
)

// TestMigrateCommandIntegration drives the migrate command end to end
// against a real Postgres: scaffold-style registration, batch execution,
// and a second run confirming idempotence.
func TestMigrateCommandIntegration(t *testing.T) {
	testutil.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container := docker.New()
	require.NoError(t, container.Start(ctx))
	defer func() { _ = container.Stop(ctx) }()

	dsn, err := container.GetDSN(ctx)
	require.NoError(t, err)

	// Registered in the process-wide registry, like a scaffolded file would.
	migrator.Add(migrator.NewNamed("209901010000_create_cmd_widgets", func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `CREATE TABLE cmd_widgets (id bigint PRIMARY KEY)`)
		return err
	}))

	cfg := testConfig(t, "database: {}\n")
	cmd := migrate(migrateParams{Config: cfg})

	require.NoError(t, testutil.RunCommand(t, cmd, "migrate", "--url", dsn))

	conn, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close()

	entries, err := migrator.NewLedger().Entries(ctx, conn)
	require.NoError(t, err)

	var found bool
	for _, e := range entries {
		if e.ID == 209901010000 {
			found = true
			require.Equal(t, "create_cmd_widgets", e.Name)
		}
	}
	require.True(t, found, "expected ledger entry for 209901010000")

	// Second run has nothing to do and succeeds.
	require.NoError(t, testutil.RunCommand(t, cmd, "migrate", "--url", dsn))

	count, err := db.Scalar[int64](ctx, conn, `SELECT count(*) FROM "steward"."migrations" WHERE id = 209901010000`)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
