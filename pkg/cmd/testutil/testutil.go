// Package testutil provides helpers for exercising steward CLI commands in
// tests without a full fx application.
package testutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/steward/pkg/consts"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// RunCommand executes a command the way the steward root app would, with
// args being everything after the program name (e.g. "migrate", "--help").
func RunCommand(t *testing.T, command *cli.Command, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "steward",
		Commands: []*cli.Command{command},
	}

	return app.Run(context.Background(), append([]string{"steward"}, args...))
}

// ProjectDir creates a temporary steward project directory containing the
// given steward.yaml content and makes it the working directory for the
// test.
func ProjectDir(t *testing.T, configYAML string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, consts.ConfigFile), []byte(configYAML), consts.ModeFile))

	t.Chdir(dir)

	return dir
}

// SkipIfNoDocker skips tests that need a running Docker daemon.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	if err := exec.Command("docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}
