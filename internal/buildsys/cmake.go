package buildsys

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/oshokin/oclhelpers-release/internal/domain/release"
	"github.com/oshokin/oclhelpers-release/internal/executor"
)

// DefaultCMake is the cmake executable looked up in PATH.
const DefaultCMake = "cmake"

// CMake runs the cmake command line tool.
type CMake struct {
	runner    executor.Runner
	binary    string
	generator string
	extraArgs []string
}

// CMakeOption configures CMake.
type CMakeOption func(*CMake)

// WithBinary overrides the cmake executable.
func WithBinary(path string) CMakeOption {
	return func(c *CMake) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithGenerator passes -G to the configure step.
func WithGenerator(generator string) CMakeOption {
	return func(c *CMake) {
		c.generator = generator
	}
}

// WithExtraArgs appends arguments to the configure step.
func WithExtraArgs(args ...string) CMakeOption {
	return func(c *CMake) {
		c.extraArgs = append(c.extraArgs, args...)
	}
}

// NewCMake creates a cmake orchestrator on top of runner.
func NewCMake(runner executor.Runner, opts ...CMakeOption) *CMake {
	c := &CMake{
		runner: runner,
		binary: DefaultCMake,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configure runs `cmake [-G gen] -DCMAKE_BUILD_TYPE=<c> [extra] -S <src> -B <dir>`.
func (c *CMake) Configure(ctx context.Context, sourceRoot, buildDir string, cfg release.Configuration) error {
	args := make([]string, 0, len(c.extraArgs)+7)

	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}

	args = append(args, "-DCMAKE_BUILD_TYPE="+cfg.String())
	args = append(args, c.extraArgs...)
	args = append(args, "-S", sourceRoot, "-B", buildDir)

	return c.run(ctx, "configure "+cfg.String(), args)
}

// Build runs `cmake --build <dir> --config <c>`.
// The --config switch only matters for multi-config generators.
func (c *CMake) Build(ctx context.Context, buildDir string, cfg release.Configuration) error {
	return c.run(ctx, "build "+cfg.String(), withConfig([]string{"--build", buildDir}, cfg))
}

// Install runs `cmake --install <dir> --prefix <prefix> [--config <c>]`.
func (c *CMake) Install(ctx context.Context, buildDir, prefix string, cfg release.Configuration) error {
	step := "install"
	if cfg != "" {
		step += " " + cfg.String()
	}

	return c.run(ctx, step, withConfig([]string{"--install", buildDir, "--prefix", prefix}, cfg))
}

func (c *CMake) run(ctx context.Context, step string, args []string) error {
	return c.runner.Run(ctx, executor.Command{
		Step: step,
		Name: c.binary,
		Args: args,
	})
}

func withConfig(args []string, cfg release.Configuration) []string {
	if cfg == "" {
		return args
	}

	return append(args, "--config", cfg.String())
}

// SplitArgs splits a shell-quoted argument string, e.g. `-DFOO=1 "-DBAR=a b"`.
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("split arguments %q: %w", s, err)
	}

	return args, nil
}
