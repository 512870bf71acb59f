package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/oclhelpers-release/internal/archive"
	"github.com/oshokin/oclhelpers-release/internal/buildsys"
	"github.com/oshokin/oclhelpers-release/internal/domain/release"
)

// Config holds the packaging settings. Zero values are replaced by defaults in Validate.
type Config struct {
	// Product is the archive file name prefix.
	Product string `yaml:"product"`
	// Configurations are the build types packaged, in order.
	Configurations []string `yaml:"configurations"`
	// CMake is the build orchestrator executable.
	CMake string `yaml:"cmake"`
	// Tar is the archiver executable used when Archiver is "tar".
	Tar string `yaml:"tar"`
	// SourceRoot is the project source tree; resolved automatically when empty.
	SourceRoot string `yaml:"source_root"`
	// BuildDir is the already configured build tree installed into the destination.
	BuildDir string `yaml:"build_dir"`
	// Generator is passed to cmake -G when set.
	Generator string `yaml:"generator"`
	// CMakeArgs are extra shell-quoted arguments for the configure step.
	CMakeArgs string `yaml:"cmake_args"`
	// Archiver selects "native" or "tar".
	Archiver string `yaml:"archiver"`
	// KeepGoing continues with the next configuration after a failure.
	KeepGoing bool `yaml:"keep_going"`
	// Manifest writes a checksum manifest next to the archives.
	Manifest bool `yaml:"manifest"`
	// KeepWorkspace leaves the temporary build trees on disk.
	KeepWorkspace bool `yaml:"keep_workspace"`
	// CommandTimeout limits each external command; zero means no limit.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is looked up in the working directory.
	DefaultConfigFilename = "release-packager.yaml"

	// DefaultBuildDir is the configured build tree installed first.
	DefaultBuildDir = "."

	// DefaultLogLevel is used when nothing is configured.
	DefaultLogLevel = "info"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errProductRequired is returned for a blank product name.
	errProductRequired = errors.New("product must not be empty")
	// errBadProduct is returned when the product would escape the destination.
	errBadProduct = errors.New("product must not contain path separators")
	// errNegativeTimeout is returned for command_timeout < 0.
	errNegativeTimeout = errors.New("command timeout must not be negative")
	// errBadLogLevel is returned for unknown log levels.
	errBadLogLevel = errors.New("unknown log level")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg) //nolint:errcheck // Defaults are always valid.

	return cfg
}

// Load reads configuration from path.
// A missing file is only an error when required is true; otherwise defaults are returned.
func Load(path string, required bool) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, 0o644); err != nil { //nolint:gosec // Settings are not secret.
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if strings.TrimSpace(cfg.Product) == "" {
		return errProductRequired
	}

	if strings.ContainsAny(cfg.Product, `/\`) {
		return fmt.Errorf("%q: %w", cfg.Product, errBadProduct)
	}

	if _, err := release.ParseConfigurations(cfg.Configurations); err != nil {
		return fmt.Errorf("invalid configurations: %w", err)
	}

	if _, err := archive.ParseKind(cfg.Archiver); err != nil {
		return err
	}

	if _, err := buildsys.SplitArgs(cfg.CMakeArgs); err != nil {
		return fmt.Errorf("invalid cmake_args: %w", err)
	}

	if cfg.CommandTimeout < 0 {
		return errNegativeTimeout
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errBadLogLevel)
	}

	return nil
}

// BuildConfigurations returns the parsed build types. Call after Validate.
func (c *Config) BuildConfigurations() []release.Configuration {
	configurations, _ := release.ParseConfigurations(c.Configurations) //nolint:errcheck // Checked by Validate.
	return configurations
}

//nolint:gochecknoglobals // Lookup table.
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

func applyDefaults(cfg *Config) {
	if cfg.Product == "" {
		cfg.Product = release.DefaultProduct
	}

	if len(cfg.Configurations) == 0 {
		for _, c := range release.DefaultConfigurations() {
			cfg.Configurations = append(cfg.Configurations, c.String())
		}
	}

	if cfg.CMake == "" {
		cfg.CMake = buildsys.DefaultCMake
	}

	if cfg.Tar == "" {
		cfg.Tar = archive.DefaultTar
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}

	if cfg.Archiver == "" {
		cfg.Archiver = string(archive.KindNative)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
