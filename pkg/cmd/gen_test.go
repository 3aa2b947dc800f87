package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/steward/pkg/cmd/testutil"
	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/stretchr/testify/require"
)

func TestGenCommand(t *testing.T) {
	dir := testutil.ProjectDir(t, "gen:\n  dir: models\n")

	src := "package models\n\n// steward:table app.users\ntype User struct {\n\tID int64 `db:\"id,pk\"`\n\tEmail string `db:\"email\"`\n}\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), consts.ModeDir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "models.go"), []byte(src), consts.ModeFile))

	cmd := genCmd(genParams{Config: testConfig(t, "gen:\n  dir: models\n")})
	require.NoError(t, testutil.RunCommand(t, cmd, "gen"))

	require.FileExists(t, filepath.Join(dir, "models", "user_table.gen.go"))
}

func TestGenCommandRequiresConfig(t *testing.T) {
	err := testutil.RunCommand(t, genCmd(genParams{}), "gen")
	require.Error(t, err)
	require.Contains(t, err.Error(), "steward.yaml not found")
}
