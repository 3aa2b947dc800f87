package cmd

import (
	"testing"

	"github.com/pseudomuto/steward/pkg/cmd/testutil"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand(t *testing.T) {
	cmd := migrate(migrateParams{Config: testConfig(t, "database: {}\n")})

	require.Equal(t, "migrate", cmd.Name)
	require.Contains(t, cmd.Aliases, "apply")

	require.NoError(t, testutil.RunCommand(t, cmd, "migrate", "--help"))
}

func TestMigrateRequiresConfig(t *testing.T) {
	cmd := migrate(migrateParams{})

	err := testutil.RunCommand(t, cmd, "migrate")
	require.Error(t, err)
	require.Contains(t, err.Error(), "steward.yaml not found")
}

func TestMigrateRequiresURL(t *testing.T) {
	t.Setenv("STEWARD_URL", "")
	t.Setenv("DATABASE_URL", "")

	cmd := migrate(migrateParams{Config: testConfig(t, "database: {}\n")})

	err := testutil.RunCommand(t, cmd, "migrate")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no database url")
}

func TestFindMigrationUnknown(t *testing.T) {
	_, err := findMigration(999912312359)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no registered migration")
}
