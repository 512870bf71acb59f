package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/oclhelpers-release/internal/version"
)

func parse(t *testing.T, args ...string) (*flags, *cobra.Command) {
	t.Helper()

	f := new(flags)
	cmd := &cobra.Command{Use: "test"}
	f.bind(cmd.Flags())
	require.NoError(t, cmd.ParseFlags(args))

	return f, cmd
}

// TestRootCommand_RequiresTwoArgs checks the positional argument contract.
func TestRootCommand_RequiresTwoArgs(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{}, {"/tmp/out"}, {"/tmp/out", "1.2.3", "extra"}} {
		root := NewRootCommand()

		var stderr bytes.Buffer

		root.SetOut(&stderr)
		root.SetErr(&stderr)
		root.SetArgs(args)

		err := root.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), "accepts 2 arg(s)")
		require.Contains(t, stderr.String(), "Usage:")
	}
}

// TestRootCommand_Version runs the version subcommand.
func TestRootCommand_Version(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), version.Short())
}

// TestFlags_Defaults uses defaults when no config file exists at the default path.
func TestFlags_Defaults(t *testing.T) {
	t.Parallel()

	f, cmd := parse(t)
	f.configPath = filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := f.load(cmd)
	require.NoError(t, err)
	require.Equal(t, "oclhelpers", cfg.Product)
	require.Equal(t, []string{"Debug", "Release"}, cfg.Configurations)
}

// TestFlags_OverrideFile applies only explicitly set flags on top of the file.
func TestFlags_OverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "packager.yaml")
	contents := "product: mylib\ngenerator: Ninja\narchiver: tar\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	f, cmd := parse(t,
		"--config", path,
		"--configurations", "Release,RelWithDebInfo",
		"--keep-going",
		"--timeout", "45m",
		"-S", "/src/oclhelpers",
	)

	cfg, err := f.load(cmd)
	require.NoError(t, err)
	require.Equal(t, "mylib", cfg.Product)
	require.Equal(t, "Ninja", cfg.Generator)
	require.Equal(t, "tar", cfg.Archiver)
	require.Equal(t, []string{"Release", "RelWithDebInfo"}, cfg.Configurations)
	require.True(t, cfg.KeepGoing)
	require.False(t, cfg.Manifest)
	require.Equal(t, 45*time.Minute, cfg.CommandTimeout)
	require.Equal(t, "/src/oclhelpers", cfg.SourceRoot)
}

// TestFlags_Errors covers a missing explicit config file and invalid values.
func TestFlags_Errors(t *testing.T) {
	t.Parallel()

	f, cmd := parse(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := f.load(cmd)
	require.ErrorIs(t, err, os.ErrNotExist)

	f, cmd = parse(t, "--timeout", "soon")
	f.configPath = filepath.Join(t.TempDir(), "absent.yaml")
	_, err = f.load(cmd)
	require.Error(t, err)

	f, cmd = parse(t, "--archiver", "zip")
	f.configPath = filepath.Join(t.TempDir(), "absent.yaml")
	_, err = f.load(cmd)
	require.Error(t, err)
}
