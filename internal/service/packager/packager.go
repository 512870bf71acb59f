package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/oclhelpers-release/internal/archive"
	"github.com/oshokin/oclhelpers-release/internal/buildsys"
	"github.com/oshokin/oclhelpers-release/internal/config"
	"github.com/oshokin/oclhelpers-release/internal/domain/release"
	"github.com/oshokin/oclhelpers-release/internal/executor"
	"github.com/oshokin/oclhelpers-release/internal/logger"
	"github.com/oshokin/oclhelpers-release/internal/repository/lock"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// Destination receives the main install, the archives and the optional manifest.
	Destination string
	// Version is embedded verbatim in archive names.
	Version string
	// Config holds validated settings; nil means defaults.
	Config *config.Config
	// Orchestrator replaces the cmake orchestrator built from Config.
	Orchestrator buildsys.Orchestrator
	// Archiver replaces the archiver built from Config.
	Archiver archive.Archiver
	// Runner replaces the process runner used by the default orchestrator and archiver.
	Runner executor.Runner
}

// packager holds the state of a single run.
// It is unexported, callers use Run.
type packager struct {
	cfg            *config.Config
	configurations []release.Configuration
	destination    string
	version        string
	sourceRoot     string
	orchestrator   buildsys.Orchestrator
	archiver       archive.Archiver
	// workspace is the temporary directory owning all per-configuration build trees.
	workspace string
}

var (
	errDestinationRequired = errors.New("destination must be provided")
	errVersionRequired     = errors.New("version must be provided")
	errBadVersion          = errors.New("version must not contain path separators")
)

// Run executes the packaging workflow and reports the produced archives.
// The returned Result is non-nil whenever the workflow got past setup, even on error,
// so callers can report partial output in keep-going mode.
func Run(ctx context.Context, opts *Options) (*release.Result, error) {
	ctx = logger.WithName(ctx, "release-packager")
	started := time.Now()

	p, err := newPackager(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("initialize packager: %w", err)
	}

	result := &release.Result{
		Destination: p.destination,
		Version:     p.version,
	}

	err = p.run(ctx, result)
	result.Duration = time.Since(started)

	if err != nil {
		return result, fmt.Errorf("packager failed: %w", err)
	}

	logger.InfoKV(ctx, "Packaging completed successfully",
		"archives", len(result.Artifacts), "elapsed", result.Duration.Round(time.Millisecond))

	return result, nil
}

// newPackager validates inputs and wires the orchestrator and archiver.
func newPackager(ctx context.Context, opts *Options) (*packager, error) {
	if opts == nil || strings.TrimSpace(opts.Destination) == "" {
		return nil, errDestinationRequired
	}

	if opts.Version == "" {
		return nil, errVersionRequired
	}

	if strings.ContainsAny(opts.Version, `/\`) {
		return nil, fmt.Errorf("%q: %w", opts.Version, errBadVersion)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	destination, err := filepath.Abs(opts.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	p := &packager{
		cfg:            cfg,
		configurations: cfg.BuildConfigurations(),
		destination:    destination,
		version:        opts.Version,
		orchestrator:   opts.Orchestrator,
		archiver:       opts.Archiver,
	}

	runner := opts.Runner
	if runner == nil {
		runner = newRunner(cfg)
	}

	if p.orchestrator == nil {
		if p.orchestrator, err = newOrchestrator(cfg, runner); err != nil {
			return nil, err
		}
	}

	if p.archiver == nil {
		kind, _ := archive.ParseKind(cfg.Archiver) //nolint:errcheck // Checked by config.Validate.
		if p.archiver, err = archive.New(kind, runner, cfg.Tar); err != nil {
			return nil, err
		}
	}

	if p.sourceRoot, err = ResolveSourceRoot(ctx, cfg.SourceRoot, cfg.BuildDir); err != nil {
		return nil, err
	}

	return p, nil
}

// run walks the linear pipeline: destination, main install, configurations, manifest.
func (p *packager) run(ctx context.Context, result *release.Result) (err error) {
	logger.InfoKV(ctx, "Preparing destination", "path", p.destination)

	if err = p.prepareDestination(); err != nil {
		return err
	}

	guard := lock.New(p.destination)
	if err = guard.Acquire(ctx); err != nil {
		return err
	}

	defer func() {
		if releaseErr := guard.Release(); releaseErr != nil {
			err = multierr.Append(err, releaseErr)
		}
	}()

	logger.InfoKV(ctx, "Installing current build tree", "build_dir", p.cfg.BuildDir)

	if err = p.installCurrentTree(ctx); err != nil {
		return err
	}

	if err = p.createWorkspace(ctx); err != nil {
		return err
	}

	defer p.cleanup(ctx)

	for _, configuration := range p.configurations {
		artifact, artifactErr := p.getArtifact(ctx, configuration)
		if artifactErr == nil {
			result.Artifacts = append(result.Artifacts, *artifact)
			continue
		}

		err = multierr.Append(err, artifactErr)
		if !p.cfg.KeepGoing {
			return err
		}

		logger.WarnKV(ctx, "Configuration failed, continuing with the next one",
			"configuration", configuration, "error", artifactErr)
	}

	if err != nil {
		return err
	}

	if p.cfg.Manifest {
		if result.ManifestPath, err = p.writeManifest(ctx, result.Artifacts); err != nil {
			return err
		}
	}

	return nil
}

// prepareDestination creates the destination and all missing parents.
// An existing directory, empty or not, is fine.
func (p *packager) prepareDestination() error {
	if err := os.MkdirAll(p.destination, 0o755); err != nil { //nolint:gosec // Release output is meant to be readable.
		return fmt.Errorf("create destination: %w", err)
	}

	return nil
}

// installCurrentTree installs the caller's configured build tree straight into the destination.
func (p *packager) installCurrentTree(ctx context.Context) error {
	if err := p.orchestrator.Install(ctx, p.cfg.BuildDir, p.destination, ""); err != nil {
		return fmt.Errorf("install current build tree: %w", err)
	}

	return nil
}

// createWorkspace makes the temporary directory owning all per-configuration trees.
func (p *packager) createWorkspace(ctx context.Context) error {
	workspace, err := os.MkdirTemp("", "release-packager-")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	p.workspace = workspace
	logger.DebugKV(ctx, "Workspace created", "path", workspace)

	return nil
}

// getArtifact configures, builds, installs and archives one configuration.
// The first failing stage stops the configuration.
func (p *packager) getArtifact(ctx context.Context, c release.Configuration) (*release.Artifact, error) {
	ctx = logger.WithKV(ctx, "configuration", c.String())
	logger.Info(ctx, "Packaging configuration")

	var (
		buildDir   = filepath.Join(p.workspace, c.String())
		installDir = filepath.Join(buildDir, release.InstallDirName)
		output     = filepath.Join(p.destination, release.ArchiveName(p.cfg.Product, p.version, c))
	)

	fail := func(stage release.Stage, err error) (*release.Artifact, error) {
		return nil, &release.ConfigurationError{Configuration: c, Stage: stage, Err: err}
	}

	// Mkdir, not MkdirAll: a name collision inside the workspace is an error.
	if err := os.Mkdir(buildDir, 0o755); err != nil { //nolint:gosec // Build trees are not secret.
		return fail(release.StageWorkspace, err)
	}

	if err := p.orchestrator.Configure(ctx, p.sourceRoot, buildDir, c); err != nil {
		return fail(release.StageConfigure, err)
	}

	if err := p.orchestrator.Build(ctx, buildDir, c); err != nil {
		return fail(release.StageBuild, err)
	}

	if err := p.orchestrator.Install(ctx, buildDir, installDir, c); err != nil {
		return fail(release.StageInstall, err)
	}

	if err := p.archiver.Archive(ctx, output, installDir); err != nil {
		return fail(release.StageArchive, err)
	}

	logger.InfoKV(ctx, "Configuration packaged", "archive", output)

	return &release.Artifact{Configuration: c, Path: output}, nil
}

// writeManifest records checksums of all archives.
func (p *packager) writeManifest(ctx context.Context, artifacts []release.Artifact) (string, error) {
	manifest := &release.Manifest{
		Product:   p.cfg.Product,
		Version:   p.version,
		Generator: "release-packager " + generatorVersion(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Archives:  make([]release.ManifestEntry, 0, len(artifacts)),
	}

	if actor, err := release.DetectActor(); err == nil {
		manifest.BuiltBy = actor
	} else {
		logger.WarnKV(ctx, "Unable to detect who builds the release", "error", err)
	}

	for _, artifact := range artifacts {
		entry, err := release.NewManifestEntry(artifact)
		if err != nil {
			return "", err
		}

		manifest.Archives = append(manifest.Archives, entry)
	}

	path := filepath.Join(p.destination, release.ManifestName(p.cfg.Product, p.version))
	if err := release.WriteManifest(path, manifest); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Manifest written", "path", path)

	return path, nil
}

// cleanup removes the workspace unless it was asked to be kept.
func (p *packager) cleanup(ctx context.Context) {
	if p.workspace == "" {
		return
	}

	if p.cfg.KeepWorkspace {
		logger.InfoKV(ctx, "Keeping workspace", "path", p.workspace)
		return
	}

	if err := os.RemoveAll(p.workspace); err != nil {
		logger.WarnKV(ctx, "Unable to remove workspace", "path", p.workspace, "error", err)
		return
	}

	logger.DebugKV(ctx, "Workspace removed", "path", p.workspace)
}
