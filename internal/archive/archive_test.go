package archive

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/oclhelpers-release/internal/executor"
)

// entry is what the tests care about in an extracted archive.
type entry struct {
	typeflag byte
	body     string
	link     string
	mode     int64
}

func readArchive(t *testing.T, path string) map[string]entry {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		_ = f.Close()
	}()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)

	tr := tar.NewReader(gr)
	result := make(map[string]entry)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		body, err := io.ReadAll(tr)
		require.NoError(t, err)

		result[hdr.Name] = entry{
			typeflag: hdr.Typeflag,
			body:     string(body),
			link:     hdr.Linkname,
			mode:     hdr.Mode & 0o777,
		}
	}

	return result
}

func makeInstallTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include", "oclhelpers"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "oclhelpers", "oclhelpers.hpp"), []byte("#pragma once\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "liboclhelpers.so.1"), []byte("ELF"), 0o755))

	return dir
}

// TestNative_Archive archives a tree and checks the extracted layout.
func TestNative_Archive(t *testing.T) {
	t.Parallel()

	src := makeInstallTree(t)
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("liboclhelpers.so.1", filepath.Join(src, "lib", "liboclhelpers.so")))
	}

	out := filepath.Join(t.TempDir(), "oclhelpers-v1.2.3-Debug.tar.gz")
	require.NoError(t, NewNative(WithCompressionLevel(gzip.BestCompression)).Archive(context.Background(), out, src))

	got := readArchive(t, out)

	require.Equal(t, byte(tar.TypeDir), got["./"].typeflag)
	require.Equal(t, byte(tar.TypeDir), got["./include/oclhelpers/"].typeflag)
	require.Equal(t, "#pragma once\n", got["./include/oclhelpers/oclhelpers.hpp"].body)
	require.Equal(t, "ELF", got["./lib/liboclhelpers.so.1"].body)

	if runtime.GOOS != "windows" {
		require.Equal(t, int64(0o755), got["./lib/liboclhelpers.so.1"].mode)
		require.Equal(t, byte(tar.TypeSymlink), got["./lib/liboclhelpers.so"].typeflag)
		require.Equal(t, "liboclhelpers.so.1", got["./lib/liboclhelpers.so"].link)
	}

	// No leftovers from the temporary file.
	siblings, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	require.Len(t, siblings, 1)
}

// TestNative_ArchiveEmptyTree still yields a valid archive with the root entry.
func TestNative_ArchiveEmptyTree(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "empty.tar.gz")
	require.NoError(t, NewNative().Archive(context.Background(), out, t.TempDir()))
	require.Len(t, readArchive(t, out), 1)
}

// TestNative_ArchiveFailures covers missing sources and cancellation without partial output.
func TestNative_ArchiveFailures(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	out := filepath.Join(dest, "x.tar.gz")

	err := NewNative().Archive(context.Background(), out, filepath.Join(dest, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewNative().Archive(ctx, out, makeInstallTree(t))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Empty(t, entries)
}

type recordingRunner struct {
	commands []executor.Command
}

func (r *recordingRunner) Run(_ context.Context, cmd executor.Command) error {
	r.commands = append(r.commands, cmd)
	return nil
}

// TestExternal_Archive verifies the tar invocation.
func TestExternal_Archive(t *testing.T) {
	t.Parallel()

	runner := new(recordingRunner)
	require.NoError(t, NewExternal(runner, "").Archive(context.Background(), "/out/a.tar.gz", "/ws/Debug/install"))

	require.Equal(t, []executor.Command{{
		Step: "archive a.tar.gz",
		Name: "tar",
		Args: []string{"-czf", "/out/a.tar.gz", "-C", "/ws/Debug/install", "."},
	}}, runner.commands)
}

// TestNew selects implementations by kind.
func TestNew(t *testing.T) {
	t.Parallel()

	a, err := New(KindNative, nil, "")
	require.NoError(t, err)
	require.IsType(t, &Native{}, a)

	a, err = New(KindTar, new(recordingRunner), "bsdtar")
	require.NoError(t, err)
	require.IsType(t, &External{}, a)

	_, err = New("zip", nil, "")
	require.ErrorIs(t, err, ErrUnknownKind)

	k, err := ParseKind("")
	require.NoError(t, err)
	require.Equal(t, KindNative, k)

	_, err = ParseKind("7z")
	require.ErrorIs(t, err, ErrUnknownKind)
}
