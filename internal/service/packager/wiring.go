package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/oclhelpers-release/internal/buildsys"
	"github.com/oshokin/oclhelpers-release/internal/config"
	"github.com/oshokin/oclhelpers-release/internal/executor"
	"github.com/oshokin/oclhelpers-release/internal/logger"
	"github.com/oshokin/oclhelpers-release/internal/version"
)

// newRunner builds the process runner from settings.
// Tool output is shown at info level when the packager logs at debug.
func newRunner(cfg *config.Config) *executor.ExecRunner {
	outputLevel := zapcore.DebugLevel
	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok && level == zapcore.DebugLevel {
		outputLevel = zapcore.InfoLevel
	}

	return executor.NewExecRunner(
		executor.WithTimeout(cfg.CommandTimeout),
		executor.WithOutputLevel(outputLevel),
	)
}

func newOrchestrator(cfg *config.Config, runner executor.Runner) (*buildsys.CMake, error) {
	extraArgs, err := buildsys.SplitArgs(cfg.CMakeArgs)
	if err != nil {
		return nil, err
	}

	return buildsys.NewCMake(runner,
		buildsys.WithBinary(cfg.CMake),
		buildsys.WithGenerator(cfg.Generator),
		buildsys.WithExtraArgs(extraArgs...),
	), nil
}

// ResolveSourceRoot returns the absolute project source tree.
// Order: explicit value, CMAKE_HOME_DIRECTORY of the configured build tree,
// directory of the running executable.
func ResolveSourceRoot(ctx context.Context, explicit, buildDir string) (string, error) {
	if explicit != "" {
		return absDir(explicit)
	}

	root, err := buildsys.SourceRootFromCache(buildDir)
	if err == nil {
		logger.DebugKV(ctx, "Source root taken from cmake cache", "path", root)
		return absDir(root)
	}

	logger.WarnKV(ctx, "Unable to read source root from cmake cache, using executable directory", "error", err)

	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}

	if resolved, evalErr := filepath.EvalSymlinks(executable); evalErr == nil {
		executable = resolved
	}

	return filepath.Dir(executable), nil
}

func absDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve source root: %w", err)
	}

	return abs, nil
}

func generatorVersion() string {
	return version.Short()
}
