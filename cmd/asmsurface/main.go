package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/standardbeagle/asmsurface/internal/config"
	"github.com/standardbeagle/asmsurface/internal/debug"
	"github.com/standardbeagle/asmsurface/internal/surfacehash"
	"github.com/standardbeagle/asmsurface/internal/version"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:                   "asmsurface",
		Usage:                  "API-surface hashing for compiled .NET assemblies",
		Version:                version.Version,
		UseShortOptionHandling: true,
		ArgsUsage:              "<assembly-path-or-glob>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to load .asmsurface.kdl from",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "include-all-attributes",
				Usage: "Hash every custom attribute instead of the well-known whitelist",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"e"},
				Usage:   "Exclude assemblies matching glob patterns (e.g., --exclude '**/obj/**')",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Max assemblies hashed concurrently",
				Value:   runtime.NumCPU(),
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Keep running and re-hash an assembly whenever its file is rewritten",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show debug information on stderr",
			},
		},
		Action: hashCommand,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Show detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.String())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigWithOverrides loads .asmsurface.kdl from --root and applies
// CLI flag overrides on top, flags winning over file settings.
func loadConfigWithOverrides(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("root"))
	if err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", c.String("root"), err)
	}

	if c.Bool("include-all-attributes") {
		cfg.IncludeAllAttributes = true
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}

	return cfg, nil
}

func hashCommand(c *cli.Context) error {
	if c.Bool("verbose") {
		debug.Attach(os.Stderr)
	}

	if c.NArg() == 0 {
		cli.ShowAppHelpAndExit(c, 1)
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	worklist, err := expandWorklist(c.Args().Slice(), cfg.Exclude)
	if err != nil {
		return err
	}
	if len(worklist) == 0 {
		return fmt.Errorf("no assemblies matched %v", c.Args().Slice())
	}

	options := surfacehash.Options{IncludeAllAttributes: cfg.IncludeAllAttributes}

	results := hashAll(c.Context, worklist, options, c.Int("jobs"))
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "asmsurface: %s: %v\n", r.path, r.err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%016x  %s\n", r.hash, r.path)
	}

	if c.Bool("watch") {
		// Seed the skip-recompute cache from the initial pass, so the
		// first rewrite of an assembly whose bytes did not change is
		// already recognized as a no-op.
		seen := make(map[string]uint64, len(results))
		for _, r := range results {
			if r.err == nil {
				seen[r.path] = r.fingerprint
			}
		}
		debounce := time.Duration(cfg.WatchDebounceMs) * time.Millisecond
		return watchLoop(c.Context, worklist, debounce, newRehasher(c.App.Writer, options, seen))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d assemblies failed", failed, len(worklist))
	}
	return nil
}
