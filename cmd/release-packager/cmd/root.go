package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/oclhelpers-release/internal/logger"
	"github.com/oshokin/oclhelpers-release/internal/service/packager"
	"github.com/oshokin/oclhelpers-release/internal/version"
)

// flags holds command-line overrides; only flags set explicitly replace file values.
type flags struct {
	configPath     string
	product        string
	configurations []string
	sourceRoot     string
	buildDir       string
	cmake          string
	tar            string
	generator      string
	cmakeArgs      string
	archiver       string
	logLevel       string
	keepGoing      bool
	manifest       bool
	keepWorkspace  bool
	timeout        string
}

// NewRootCommand builds the release-packager command.
func NewRootCommand() *cobra.Command {
	f := new(flags)

	root := &cobra.Command{
		Use:   "release-packager [destination] [version]",
		Short: "Create release artifacts",
		Long: "Installs the current build tree into the destination folder, then builds every\n" +
			"configuration (Debug and Release by default) from scratch and packs each install\n" +
			"tree into <product>-v<version>-<configuration>.tar.gz inside the destination.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage is only useful for argument errors.
			cmd.SilenceUsage = true

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}

			// The level was checked by config.Validate.
			level, _ := logger.ParseLogLevel(cfg.LogLevel)
			logger.SetLevel(level)

			result, err := packager.Run(ctx, &packager.Options{
				Destination: args[0],
				Version:     args[1],
				Config:      cfg,
			})
			if result != nil {
				for _, artifact := range result.Artifacts {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), artifact.Path)
				}

				if result.ManifestPath != "" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.ManifestPath)
				}
			}

			return err
		},
	}

	f.bind(root.Flags())

	version.AttachCobraVersionCommand(root)

	return root
}

// Execute runs the release-packager CLI and exits with non-zero status on error.
func Execute() {
	root := NewRootCommand()

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
