package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ToyVo/minecraft-modpack/pkg/httputil"
	"github.com/ToyVo/minecraft-modpack/pkg/integrations"
	"github.com/ToyVo/minecraft-modpack/pkg/integrations/curseforge"
	"github.com/ToyVo/minecraft-modpack/pkg/integrations/modrinth"
	"github.com/ToyVo/minecraft-modpack/pkg/modpack"
	"github.com/ToyVo/minecraft-modpack/pkg/pipeline"
	"github.com/ToyVo/minecraft-modpack/pkg/resolve"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	workers  int    // bounded resolution concurrency
	retries  int    // attempts per resolution before escalation
	refresh  bool   // bypass the resolution cache
	cacheDir string // file cache location (default: user cache dir)
	cacheURL string // redis cache URL, overrides cacheDir when set
}

func newGenerateCmd() *cobra.Command {
	opts := generateOpts{workers: pipeline.DefaultWorkers, retries: httputil.DefaultAttempts}

	cmd := &cobra.Command{
		Use:   "generate <input-dir> <output-file>",
		Short: "Resolve mod definitions and write the display manifest",
		Long: `Resolve every mod definition under <input-dir> into display metadata and
write the ordered manifest to <output-file>.

Resolutions are memoized in a persistent cache, so repeated builds only hit
the platform APIs for new or re-pinned mods. CurseForge resolution requires
the FORGE_API_KEY environment variable; without it, CurseForge entries are
reported as skipped.

The command exits non-zero when any entry fails, even though the manifest
is still written with the entries that resolved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), &opts, args[0], args[1])
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "concurrent resolutions")
	cmd.Flags().IntVar(&opts.retries, "retries", opts.retries, "attempts per resolution for transient failures")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the resolution cache")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "resolution cache directory (default: user cache dir)")
	cmd.Flags().StringVar(&opts.cacheURL, "cache-url", "", "redis URL for a shared resolution cache (overrides --cache-dir)")

	return cmd
}

func runGenerate(ctx context.Context, opts *generateOpts, inputDir, outputPath string) error {
	logger := loggerFromContext(ctx)

	store, err := openCache(ctx, opts)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	registry := resolve.NewRegistry()
	registry.Register(modpack.PlatformModrinth, resolve.NewModrinth(modrinth.NewClient()))
	if key := os.Getenv("FORGE_API_KEY"); key != "" {
		registry.Register(modpack.PlatformCurseForge, resolve.NewCurseForge(curseforge.NewClient(key)))
	} else {
		logger.Warn("FORGE_API_KEY not set; curseforge mods will be skipped")
		registry.Register(modpack.PlatformCurseForge,
			resolve.Unavailable(fmt.Errorf("%w: FORGE_API_KEY not set", integrations.ErrUnauthorized)))
	}

	prog := newProgress(logger)
	spin := newSpinner(ctx, "Resolving mod metadata...")
	spin.start()

	result, runErr := pipeline.Run(ctx, pipeline.Options{
		InputDir:  inputDir,
		Cache:     store,
		Resolvers: registry,
		Workers:   opts.workers,
		Attempts:  opts.retries,
		Refresh:   opts.refresh,
		Logger:    func(format string, args ...any) { logger.Debugf(format, args...) },
	})
	spin.stop()
	if runErr != nil {
		return runErr
	}

	if err := pipeline.WriteManifest(outputPath, result.Manifest); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %d mods to %s", len(result.Manifest), outputPath))

	if n := len(result.Failures); n > 0 {
		printError("%d of %d entries failed:", n, n+len(result.Manifest))
		for _, f := range result.Failures {
			printDetail("%s: %v", f.Path, f.Err)
		}
		return errors.New("manifest incomplete; see failures above")
	}

	printSuccess("Manifest complete: %d mods", len(result.Manifest))
	return nil
}
