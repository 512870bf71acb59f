package release

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultProduct is the archive file name prefix.
	DefaultProduct = "oclhelpers"

	// ArchiveExtension is appended to every archive name.
	ArchiveExtension = ".tar.gz"

	// InstallDirName is the per-configuration install prefix inside the workspace.
	InstallDirName = "install"
)

// Configuration is a build type passed to the orchestrator, e.g. "Debug".
type Configuration string

// Build configurations packaged when nothing else is configured.
const (
	Debug   Configuration = "Debug"
	Release Configuration = "Release"
)

var (
	errEmptyConfiguration   = errors.New("configuration name is empty")
	errInvalidConfiguration = errors.New("configuration name must not contain path separators or dots only")
	errDuplicateConfig      = errors.New("duplicate configuration")
	errNoConfigurations     = errors.New("at least one configuration is required")
)

// DefaultConfigurations returns the ordered list {Debug, Release}.
func DefaultConfigurations() []Configuration {
	return []Configuration{Debug, Release}
}

// String implements fmt.Stringer.
func (c Configuration) String() string {
	return string(c)
}

// Validate checks that c can be used as a directory name inside the workspace.
func (c Configuration) Validate() error {
	name := string(c)

	switch {
	case strings.TrimSpace(name) == "":
		return errEmptyConfiguration
	case strings.ContainsAny(name, `/\`), name == ".", name == "..":
		return fmt.Errorf("%q: %w", name, errInvalidConfiguration)
	}

	return nil
}

// ParseConfigurations converts names into configurations, rejecting invalid and duplicate ones.
// The order of names is kept.
func ParseConfigurations(names []string) ([]Configuration, error) {
	if len(names) == 0 {
		return nil, errNoConfigurations
	}

	var (
		result = make([]Configuration, 0, len(names))
		seen   = make(map[Configuration]struct{}, len(names))
	)

	for _, name := range names {
		c := Configuration(strings.TrimSpace(name))
		if err := c.Validate(); err != nil {
			return nil, err
		}

		if _, ok := seen[c]; ok {
			return nil, fmt.Errorf("%q: %w", name, errDuplicateConfig)
		}

		seen[c] = struct{}{}
		result = append(result, c)
	}

	return result, nil
}

// ArchiveName returns "<product>-v<version>-<configuration>.tar.gz".
// The version is embedded verbatim.
func ArchiveName(product, version string, c Configuration) string {
	return product + "-v" + version + "-" + string(c) + ArchiveExtension
}

// ManifestName returns "<product>-v<version>-manifest.yaml".
func ManifestName(product, version string) string {
	return product + "-v" + version + "-manifest.yaml"
}

// Artifact is one archive produced for a configuration.
type Artifact struct {
	// Configuration is the build type the archive was built with.
	Configuration Configuration
	// Path is the absolute location of the archive in the destination.
	Path string
}

// Result summarises a packaging run.
type Result struct {
	// Destination is the absolute destination directory.
	Destination string
	// Version is the packaged version string.
	Version string
	// Artifacts lists archives in configuration order.
	Artifacts []Artifact
	// ManifestPath is set when a manifest was written.
	ManifestPath string
	// Duration is the wall time of the run.
	Duration time.Duration
}
