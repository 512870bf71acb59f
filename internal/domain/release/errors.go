package release

import "fmt"

// Stage names a step of the per-configuration pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageWorkspace Stage = "workspace"
	StageConfigure Stage = "configure"
	StageBuild     Stage = "build"
	StageInstall   Stage = "install"
	StageArchive   Stage = "archive"
)

// ConfigurationError reports which configuration failed and at which stage.
type ConfigurationError struct {
	Configuration Configuration
	Stage         Stage
	Err           error
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Configuration, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
