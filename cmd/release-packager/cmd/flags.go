package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/oclhelpers-release/internal/config"
)

// bind registers the flags on fs.
func (f *flags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	fs.StringVar(&f.product, "product", "", "archive name prefix (default \"oclhelpers\")")
	fs.StringSliceVar(&f.configurations, "configurations", nil, "build configurations in order (default Debug,Release)")
	fs.StringVarP(&f.sourceRoot, "source-root", "S", "", "project source tree (default: read from the build tree's CMakeCache.txt)")
	fs.StringVarP(&f.buildDir, "build-dir", "B", "", "already configured build tree to install first (default \".\")")
	fs.StringVar(&f.cmake, "cmake", "", "cmake executable")
	fs.StringVar(&f.tar, "tar", "", "tar executable used with --archiver=tar")
	fs.StringVarP(&f.generator, "generator", "G", "", "cmake generator for fresh build trees")
	fs.StringVar(&f.cmakeArgs, "cmake-args", "", "extra shell-quoted arguments for the configure step")
	fs.StringVar(&f.archiver, "archiver", "", "archiver implementation: native or tar")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&f.keepGoing, "keep-going", false, "continue with the next configuration after a failure")
	fs.BoolVar(&f.manifest, "manifest", false, "write a checksum manifest next to the archives")
	fs.BoolVar(&f.keepWorkspace, "keep-workspace", false, "do not delete temporary build trees")
	fs.StringVar(&f.timeout, "timeout", "", "limit for each external command, e.g. 30m (default: none)")
}

// load reads the configuration file and applies explicitly set flags on top.
// A missing file is fine unless --config was given.
func (f *flags) load(cmd *cobra.Command) (*config.Config, error) {
	changed := cmd.Flags().Changed

	cfg, err := config.Load(f.configPath, changed("config"))
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		name  string
		apply func()
	}{
		{"product", func() { cfg.Product = f.product }},
		{"configurations", func() { cfg.Configurations = f.configurations }},
		{"source-root", func() { cfg.SourceRoot = f.sourceRoot }},
		{"build-dir", func() { cfg.BuildDir = f.buildDir }},
		{"cmake", func() { cfg.CMake = f.cmake }},
		{"tar", func() { cfg.Tar = f.tar }},
		{"generator", func() { cfg.Generator = f.generator }},
		{"cmake-args", func() { cfg.CMakeArgs = f.cmakeArgs }},
		{"archiver", func() { cfg.Archiver = f.archiver }},
		{"log-level", func() { cfg.LogLevel = f.logLevel }},
		{"keep-going", func() { cfg.KeepGoing = f.keepGoing }},
		{"manifest", func() { cfg.Manifest = f.manifest }},
		{"keep-workspace", func() { cfg.KeepWorkspace = f.keepWorkspace }},
	}

	for _, o := range overrides {
		if changed(o.name) {
			o.apply()
		}
	}

	if changed("timeout") {
		if cfg.CommandTimeout, err = time.ParseDuration(f.timeout); err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
