package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/stringle-dev/stringle/pkg/config"
	"github.com/stringle-dev/stringle/pkg/discover"
	"github.com/stringle-dev/stringle/pkg/log"
	"github.com/stringle-dev/stringle/pkg/replace"
	"github.com/stringle-dev/stringle/pkg/rules"
)

// rootFlags holds every command-line option.
type rootFlags struct {
	ignoreCase   bool
	regex        bool
	noSort       bool
	dryRun       bool
	jsonOut      bool
	verbose      bool
	showDiff     bool
	debug        bool
	useGitignore bool
	workers      int
	configFile   string
	extensions   []string
	ignoreDirs   []string
	ignoreFiles  []string
	ignoreExts   []string
	ignoreGlobs  []string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "stringle <directory> [search:replace ...]",
		Short: "Bulk find and replace across a directory tree",
		Long: `stringle performs bulk, multi-pattern search and replace across the
text files beneath a directory, with literal or regex matching, case
toggles, file filtering, and a non-mutating dry-run mode.

Replacement pairs use the form "search:replace"; the first colon splits
the pair. Pairs may also come from a .stringle.yaml or .stringle.hcl
config file.`,
		Example: `  stringle ./src 'old:new'
  stringle ./src 'foo:bar' 'old:new' -e .py -e .txt
  stringle ./src 'Test\d+:Result' -r --dry-run --diff
  stringle ./src 'old:new' --ignore-dir build --ignore-glob '**/*_test.go'`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}

	cmd.Flags().BoolVarP(&flags.ignoreCase, "ignore-case", "i", false, "case-insensitive matching")
	cmd.Flags().BoolVarP(&flags.regex, "regex", "r", false, "treat search patterns as regular expressions")
	cmd.Flags().BoolVar(&flags.noSort, "no-sort", false, "apply rules in input order instead of longest-first")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "preview changes without applying them")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "output the run summary as JSON")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "show detailed output")
	cmd.Flags().BoolVar(&flags.showDiff, "diff", false, "show a diff for each modified file")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().BoolVar(&flags.useGitignore, "gitignore", false, "also honor .gitignore rules at the root")
	cmd.Flags().IntVar(&flags.workers, "workers", 1, "number of files processed concurrently")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "config file path (.stringle.yaml or .stringle.hcl)")
	cmd.Flags().StringSliceVarP(&flags.extensions, "extension", "e", nil, "only process files with this extension")
	cmd.Flags().StringSliceVar(&flags.ignoreDirs, "ignore-dir", nil, "ignore this directory name")
	cmd.Flags().StringSliceVar(&flags.ignoreFiles, "ignore-file", nil, "ignore this file")
	cmd.Flags().StringSliceVar(&flags.ignoreExts, "ignore-ext", nil, "ignore files with this extension")
	cmd.Flags().StringSliceVar(&flags.ignoreGlobs, "ignore-glob", nil, "ignore files matching this glob pattern")

	return cmd
}

// run executes one full find-and-replace invocation.
func run(cmd *cobra.Command, flags *rootFlags, args []string) error {
	ctx := setupLogging(flags.debug)

	cfg, err := loadConfig(ctx, flags.configFile)
	if err != nil {
		return err
	}

	root := cfg.Root
	pairArgs := args
	if len(args) > 0 {
		// With a config-supplied root, a leading positional is only the
		// directory when it actually names one; otherwise every
		// positional is a search:replace pair.
		if info, statErr := os.Stat(args[0]); root == "" || (statErr == nil && info.IsDir()) {
			root = args[0]
			pairArgs = args[1:]
		}
	}
	if root == "" {
		return errors.Errorf("no directory given: pass one as the first argument or set root in the config")
	}
	info, err := os.Stat(root)
	if err != nil {
		return errors.Errorf("directory not found: %s", root)
	}
	if !info.IsDir() {
		return errors.Errorf("not a directory: %s", root)
	}

	pairs, err := collectPairs(cfg, pairArgs)
	if err != nil {
		return err
	}

	opts := rules.Options{
		CaseSensitive: !(flags.ignoreCase || cfg.IgnoreCase),
		UseRegex:      flags.regex || cfg.UseRegex,
		SortByLength:  !(flags.noSort || cfg.NoSort),
	}
	ruleSet, err := rules.Build(pairs, opts)
	if err != nil {
		return errors.Errorf("building rules: %w", err)
	}

	dir := &discover.Directory{
		Path:              root,
		IgnoreFiles:       append(cfg.IgnoreFiles, flags.ignoreFiles...),
		IgnoreExtensions:  append(cfg.IgnoreExtensions, flags.ignoreExts...),
		IncludeExtensions: append(cfg.IncludeExtensions, flags.extensions...),
		IgnoreGlobs:       append(cfg.IgnoreGlobs, flags.ignoreGlobs...),
		UseGitignore:      flags.useGitignore || cfg.UseGitignore,
	}
	if dirs := append(cfg.IgnoreDirs, flags.ignoreDirs...); len(dirs) > 0 {
		dir.IgnoreDirs = dirs
	}

	files, err := dir.SelectedFiles(ctx)
	if err != nil {
		return errors.Errorf("discovering files: %w", err)
	}

	dryRun := flags.dryRun || cfg.DryRun
	workers := flags.workers
	if cfg.Workers > workers {
		workers = cfg.Workers
	}

	var observer replace.Observer = replace.NopObserver{}
	if !flags.jsonOut {
		observer = log.New(log.Options{
			Console:  cmd.OutOrStdout(),
			Level:    consoleLevel(flags.debug),
			Verbose:  flags.verbose,
			ShowDiff: flags.showDiff,
			DryRun:   dryRun,
			Progress: !flags.debug && !flags.verbose && workers == 1,
		})
	}

	coordinator := replace.New(replace.Options{
		Transformer: &replace.Transformer{
			DryRun:         dryRun,
			CaptureContent: flags.showDiff,
		},
		Observer: observer,
		Workers:  workers,
	})
	summary := coordinator.Run(ctx, files, ruleSet)

	if flags.jsonOut {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return errors.Errorf("encoding summary: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}

// loadConfig loads the config file when one is given or discoverable;
// otherwise it returns an empty config.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(ctx, path)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	for _, candidate := range []string{".stringle.yaml", ".stringle.yml", ".stringle.hcl"} {
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := config.Load(ctx, candidate)
			if err != nil {
				return nil, errors.Errorf("loading config: %w", err)
			}
			return cfg, nil
		}
	}
	return &config.Config{}, nil
}

// collectPairs merges config replacements with command-line pairs, in
// that order. Duplicate detection happens later in rules.Build.
func collectPairs(cfg *config.Config, args []string) ([]rules.Rule, error) {
	pairs := make([]rules.Rule, 0, len(cfg.Replacements)+len(args))
	for _, r := range cfg.Replacements {
		pairs = append(pairs, rules.Rule{Search: r.Search, Replace: r.Replace})
	}
	for _, arg := range args {
		search, repl, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, errors.Errorf("invalid replacement %q: expected \"search:replace\"", arg)
		}
		pairs = append(pairs, rules.Rule{Search: search, Replace: repl})
	}
	if len(pairs) == 0 {
		return nil, errors.Errorf("no replacements given: pass search:replace pairs or a config file")
	}
	return pairs, nil
}

// setupLogging configures zerolog and returns a context carrying the logger.
func setupLogging(debug bool) context.Context {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(level)
	return logger.WithContext(context.Background())
}

// consoleLevel mirrors the structured log level used by the observer.
func consoleLevel(debug bool) zerolog.Level {
	if debug {
		return zerolog.InfoLevel
	}
	return zerolog.Disabled
}
