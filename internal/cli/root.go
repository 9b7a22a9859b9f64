// Package cli implements the packmeta command-line interface.
//
// The main command is generate, which resolves a directory of mod
// definition files into the display manifest consumed by the modpack site.
// The cache command manages the on-disk resolution cache. All commands
// support --verbose (-v) for debug-level logging; loggers travel through
// context.Context.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev" // semantic version (e.g., "v1.2.3")
	commit  = ""    // git commit SHA
	date    = ""    // build timestamp
)

// SetVersion sets the version information displayed by --version.
// Called by the main package with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the packmeta CLI and returns an error if any command fails.
//
// Logging goes to stderr at info level, or debug with --verbose. The logger
// is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:           "packmeta",
		Short:         "packmeta generates the modpack display manifest",
		Long:          "packmeta resolves packwiz mod definitions against Modrinth and CurseForge and emits the consolidated metadata manifest the modpack site renders at build time.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("packmeta %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}
