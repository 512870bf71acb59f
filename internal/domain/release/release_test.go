package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestArchiveName checks the naming scheme, including unusual version strings.
func TestArchiveName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		version string
		config  Configuration
		want    string
	}{
		{"1.2.3", Debug, "oclhelpers-v1.2.3-Debug.tar.gz"},
		{"1.2.3", Release, "oclhelpers-v1.2.3-Release.tar.gz"},
		{"1.0.0-rc1", Release, "oclhelpers-v1.0.0-rc1-Release.tar.gz"},
		{"not a version", Debug, "oclhelpers-vnot a version-Debug.tar.gz"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ArchiveName(DefaultProduct, tc.version, tc.config))
		// Same inputs always give the same name.
		require.Equal(t, ArchiveName(DefaultProduct, tc.version, tc.config), ArchiveName(DefaultProduct, tc.version, tc.config))
	}

	require.Equal(t, "oclhelpers-v2.0-manifest.yaml", ManifestName(DefaultProduct, "2.0"))
}

// TestDefaultConfigurations ensures Debug is packaged before Release.
func TestDefaultConfigurations(t *testing.T) {
	t.Parallel()

	require.Equal(t, []Configuration{Debug, Release}, DefaultConfigurations())
}

// TestParseConfigurations covers order preservation and rejected names.
func TestParseConfigurations(t *testing.T) {
	t.Parallel()

	got, err := ParseConfigurations([]string{"Release", " RelWithDebInfo ", "Debug"})
	require.NoError(t, err)
	require.Equal(t, []Configuration{Release, "RelWithDebInfo", Debug}, got)

	for _, bad := range [][]string{
		nil,
		{""},
		{"../escape"},
		{".."},
		{`a\b`},
		{"Debug", "Debug"},
	} {
		_, err = ParseConfigurations(bad)
		require.Error(t, err, fmt.Sprint(bad))
	}
}

// TestConfigurationError ensures the cause stays reachable through errors.Is.
func TestConfigurationError(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 2")
	err := fmt.Errorf("package: %w", &ConfigurationError{Configuration: Debug, Stage: StageBuild, Err: cause})

	require.ErrorIs(t, err, cause)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, StageBuild, cfgErr.Stage)
	require.Contains(t, err.Error(), "Debug: build: exit status 2")
}

// TestManifestRoundtrip writes a manifest for a real file and reads it back.
func TestManifestRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, ArchiveName(DefaultProduct, "1.2.3", Debug))
	require.NoError(t, os.WriteFile(archive, []byte("payload"), 0o600))

	entry, err := NewManifestEntry(Artifact{Configuration: Debug, Path: archive})
	require.NoError(t, err)
	require.Equal(t, "oclhelpers-v1.2.3-Debug.tar.gz", entry.File)
	require.Equal(t, int64(len("payload")), entry.Size)
	require.NotEmpty(t, entry.SHA512)

	want := &Manifest{
		Product:   DefaultProduct,
		Version:   "1.2.3",
		Generator: "test",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		BuiltBy:   &Actor{Hostname: "ci-runner-3", Username: "builder"},
		Archives:  []ManifestEntry{entry},
	}

	path := filepath.Join(dir, ManifestName(DefaultProduct, "1.2.3"))
	require.NoError(t, WriteManifest(path, want))

	got, err := ReadManifest(path)
	require.NoError(t, err)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt))

	got.CreatedAt = want.CreatedAt
	require.Equal(t, want, got)

	_, err = NewManifestEntry(Artifact{Configuration: Release, Path: filepath.Join(dir, "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDetectActor fills both fields on a regular host.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	actor, err := DetectActor()
	if err != nil {
		t.Skipf("no user database in this environment: %v", err)
	}

	require.NotEmpty(t, actor.Hostname)
	require.NotEmpty(t, actor.Username)
}
