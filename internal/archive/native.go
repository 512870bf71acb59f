package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/oshokin/oclhelpers-release/internal/logger"
)

// ArchiveFileMode is the permission of a finished archive.
const ArchiveFileMode os.FileMode = 0o644

// Native builds tar.gz archives in-process.
type Native struct {
	level int
}

// NativeOption configures Native.
type NativeOption func(*Native)

// WithCompressionLevel sets the gzip level (gzip.BestSpeed..gzip.BestCompression).
func WithCompressionLevel(level int) NativeOption {
	return func(n *Native) {
		n.level = level
	}
}

// NewNative creates a Native archiver with default compression.
func NewNative(opts ...NativeOption) *Native {
	n := &Native{level: gzip.DefaultCompression}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Archive writes sourceDir into outputPath.
// The archive is assembled in a temporary file next to outputPath and renamed
// into place on success, so a failure never leaves a truncated archive behind.
func (n *Native) Archive(ctx context.Context, outputPath, sourceDir string) (err error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", sourceDir, fs.ErrInvalid)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	count, err := n.write(ctx, tmp, sourceDir)
	if err != nil {
		return err
	}

	if err = tmp.Chmod(ArchiveFileMode); err != nil {
		return fmt.Errorf("chmod archive: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err = os.Rename(tmp.Name(), outputPath); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}

	logger.InfoKV(ctx, "Archive written", "path", outputPath, "entries", count)

	return nil
}

func (n *Native) write(ctx context.Context, w io.Writer, sourceDir string) (int, error) {
	gw, err := gzip.NewWriterLevel(w, n.level)
	if err != nil {
		return 0, fmt.Errorf("gzip writer: %w", err)
	}

	tw := tar.NewWriter(gw)
	count := 0

	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		if err = addEntry(tw, path, rel, d); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}

		count++

		return nil
	})
	if err != nil {
		return 0, err
	}

	if err = tw.Close(); err != nil {
		return 0, fmt.Errorf("finish tar: %w", err)
	}

	if err = gw.Close(); err != nil {
		return 0, fmt.Errorf("finish gzip: %w", err)
	}

	return count, nil
}

// addEntry writes a header (and body for regular files) for path stored as ./rel.
func addEntry(tw *tar.Writer, path, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}

	header.Name = entryName(rel, info.IsDir())
	// Owner names of the build machine are meaningless to consumers.
	header.Uname, header.Gname = "", ""
	header.Format = tar.FormatPAX

	if err = tw.WriteHeader(header); err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	_, err = io.Copy(tw, f)

	return err
}

func entryName(rel string, isDir bool) string {
	name := "./"
	if rel != "." {
		name += filepath.ToSlash(rel)
		if isDir {
			name += "/"
		}
	}

	return name
}
