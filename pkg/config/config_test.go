package config_test

import (
	_ "embed"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/pseudomuto/steward/pkg/config"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/steward.yaml
var testConfigYAML string

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(testConfigYAML))
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("database:\n  url: postgres://localhost/app\n"))
		require.NoError(t, err)
		require.Equal(t, consts.DefaultLedgerSchema, cfg.Ledger.Schema)
		require.Equal(t, consts.DefaultLedgerTable, cfg.Ledger.Table)
		require.Equal(t, consts.DefaultMigrationsDir, cfg.Migrations.Dir)
		require.Equal(t, consts.DefaultGenDir, cfg.Gen.Dir)
		require.Zero(t, cfg.Database.MaxConns)
	})

	t.Run("error", func(t *testing.T) {
		// Invalid YAML
		cfg, err := LoadConfig(strings.NewReader("invalid: yaml: ["))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to unmarshal project config")

		// Empty input
		cfg, err = LoadConfig(strings.NewReader(""))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to unmarshal project config")
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := LoadConfigFile(filepath.Join("testdata", consts.ConfigFile))
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), consts.ConfigFile))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to open file")
	})
}

func TestLedgerOptions(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(testConfigYAML))
	require.NoError(t, err)
	require.Len(t, cfg.LedgerOptions(), 2)
}

func TestPoolOptions(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(testConfigYAML))
	require.NoError(t, err)
	require.Len(t, cfg.PoolOptions(), 2)

	cfg, err = LoadConfig(strings.NewReader("database:\n  url: postgres://localhost/app\n"))
	require.NoError(t, err)
	require.Len(t, cfg.PoolOptions(), 1)
}

func validateTestConfig(t *testing.T, cfg *Config) {
	t.Helper()

	require.Equal(t, "postgres://localhost:5432/app?sslmode=disable", cfg.Database.URL)
	require.Equal(t, int32(8), cfg.Database.MaxConns)
	require.Equal(t, "ops", cfg.Ledger.Schema)
	require.Equal(t, "schema_changes", cfg.Ledger.Table)
	require.Equal(t, "db/migrations", cfg.Migrations.Dir)
	require.Equal(t, "db/models", cfg.Gen.Dir)
}
