package release

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFileMode is the permission of a written manifest.
const ManifestFileMode os.FileMode = 0o644

// Manifest describes the archives of one release.
type Manifest struct {
	// Product is the archive name prefix.
	Product string `yaml:"product"`
	// Version is the packaged version string.
	Version string `yaml:"version"`
	// Generator identifies the packager build that produced the release.
	Generator string `yaml:"generator"`
	// CreatedAt is the UTC time the manifest was written.
	CreatedAt time.Time `yaml:"created_at"`
	// BuiltBy is omitted when the host or user cannot be determined.
	BuiltBy *Actor `yaml:"built_by,omitempty"`
	// Archives lists one entry per configuration.
	Archives []ManifestEntry `yaml:"archives"`
}

// ManifestEntry describes a single archive.
type ManifestEntry struct {
	File          string `yaml:"file"`
	Configuration string `yaml:"configuration"`
	Size          int64  `yaml:"size"`
	// SHA512 is the base64 encoded checksum of the archive.
	SHA512 string `yaml:"sha512"`
}

// NewManifestEntry checksums the archive at a.Path.
func NewManifestEntry(a Artifact) (ManifestEntry, error) {
	f, err := os.Open(filepath.Clean(a.Path))
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := sha512.New()

	size, err := io.Copy(hasher, f)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("checksum %s: %w", a.Path, err)
	}

	return ManifestEntry{
		File:          filepath.Base(a.Path),
		Configuration: a.Configuration.String(),
		Size:          size,
		SHA512:        base64.StdEncoding.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// WriteManifest stores m as YAML at path.
func WriteManifest(path string, m *Manifest) error {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, ManifestFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}
