package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/oclhelpers-release/internal/executor"
)

// Kind selects an Archiver implementation.
type Kind string

// Supported archiver kinds.
const (
	KindNative Kind = "native"
	KindTar    Kind = "tar"
)

// DefaultTar is the tar executable used by External.
const DefaultTar = "tar"

// ErrUnknownKind is returned by New for unsupported kinds.
var ErrUnknownKind = errors.New("unknown archiver")

// Archiver writes the contents of sourceDir into a .tar.gz at outputPath.
type Archiver interface {
	Archive(ctx context.Context, outputPath, sourceDir string) error
}

// ParseKind validates an archiver name. Empty selects KindNative.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindNative:
		return KindNative, nil
	case KindTar:
		return KindTar, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
	}
}

// New returns the archiver for kind. runner and tarBinary are used by KindTar only.
//
//nolint:ireturn // Callers pick the implementation at runtime.
func New(kind Kind, runner executor.Runner, tarBinary string) (Archiver, error) {
	switch kind {
	case "", KindNative:
		return NewNative(), nil
	case KindTar:
		return NewExternal(runner, tarBinary), nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
}
