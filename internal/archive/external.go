package archive

import (
	"context"
	"path/filepath"

	"github.com/oshokin/oclhelpers-release/internal/executor"
)

// External runs `tar -czf <out> -C <dir> .`.
type External struct {
	runner executor.Runner
	binary string
}

// NewExternal creates an archiver that shells out to tarBinary (DefaultTar when empty).
func NewExternal(runner executor.Runner, tarBinary string) *External {
	if tarBinary == "" {
		tarBinary = DefaultTar
	}

	return &External{
		runner: runner,
		binary: tarBinary,
	}
}

// Archive implements Archiver.
func (e *External) Archive(ctx context.Context, outputPath, sourceDir string) error {
	return e.runner.Run(ctx, executor.Command{
		Step: "archive " + filepath.Base(outputPath),
		Name: e.binary,
		Args: []string{"-czf", outputPath, "-C", sourceDir, "."},
	})
}
