package buildsys

import (
	"context"

	"github.com/oshokin/oclhelpers-release/internal/domain/release"
)

// Orchestrator configures, builds and installs a source tree.
type Orchestrator interface {
	// Configure generates a fresh build tree in buildDir for sourceRoot.
	Configure(ctx context.Context, sourceRoot, buildDir string, c release.Configuration) error
	// Build compiles the tree in buildDir.
	Build(ctx context.Context, buildDir string, c release.Configuration) error
	// Install copies the outputs of buildDir under prefix.
	// An empty configuration installs whatever the tree was configured with.
	Install(ctx context.Context, buildDir, prefix string, c release.Configuration) error
}
