// Package log renders run progress to the console and mirrors every
// event to structured logs. Logger implements replace.Observer, so it
// plugs straight into a run coordinator.
package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/stringle-dev/stringle/pkg/replace"
)

// 🎨 Display configuration
const (
	fileIndent = 2  // spaces to indent file entries
	nameWidth  = 45 // base width for file paths
)

// 🔧 Options configures a console logger.
type Options struct {
	// Console receives the human-readable output
	Console io.Writer
	// Level is the zerolog level for the structured mirror
	Level zerolog.Level
	// Verbose also prints unchanged files
	Verbose bool
	// ShowDiff prints a diff for each modified file (dry runs)
	ShowDiff bool
	// DryRun switches summary wording to the preview form
	DryRun bool
	// Progress renders a progress bar during the run
	Progress bool
}

// 🎯 Logger renders per-file lines and a run summary footer.
type Logger struct {
	zlog zerolog.Logger
	opts Options

	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
	dmp *diffmatchpatch.DiffMatchPatch
}

// 🏭 New creates a console logger.
func New(opts Options) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(opts.Level)
	return &Logger{
		zlog: zlog,
		opts: opts,
		dmp:  diffmatchpatch.New(),
	}
}

// 📝 RunStarted implements replace.Observer.
func (l *Logger) RunStarted(ctx context.Context, totalFiles int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.zlog.Info().Int("files", totalFiles).Msg("starting run")

	if l.opts.Progress && totalFiles > 0 {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(totalFiles).
			WithTitle("Processing files").
			WithWriter(l.opts.Console).
			Start()
		if err == nil {
			l.bar = bar
		}
	}
}

// 📝 FileProcessed implements replace.Observer. Modified and failed
// files always get a line; unchanged files only in verbose mode.
func (l *Logger) FileProcessed(ctx context.Context, outcome replace.FileOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bar != nil {
		l.bar.Increment()
	}

	switch {
	case outcome.Err != "":
		l.printFileLine('✗', color.FgRed, outcome.Path, outcome.Err)
		l.zlog.Warn().Str("file", outcome.Path).Str("error", outcome.Err).Msg("file skipped")
	case outcome.Modified:
		detail := fmt.Sprintf("%d replacement(s)", outcome.Replacements)
		l.printFileLine('⟳', color.FgBlue, outcome.Path, detail)
		l.zlog.Info().
			Str("file", outcome.Path).
			Int("replacements", outcome.Replacements).
			Msg("file modified")
		if l.opts.ShowDiff && outcome.Before != "" {
			l.printDiff(outcome.Before, outcome.After)
		}
	case l.opts.Verbose:
		l.printFileLine('-', color.FgYellow, outcome.Path, "unchanged")
	}
}

// 📝 RunCompleted implements replace.Observer.
func (l *Logger) RunCompleted(ctx context.Context, summary *replace.RunSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bar != nil {
		l.bar.Stop()
		l.bar = nil
	}

	processed, modified, made := "Processed", "Modified", "Made"
	if l.opts.DryRun {
		processed, modified, made = "Would process", "Would modify", "Would make"
	}

	fmt.Fprintln(l.opts.Console)
	fmt.Fprintf(l.opts.Console, "%s %d files\n", processed, summary.FilesProcessed)
	fmt.Fprintf(l.opts.Console, "%s %d files\n", modified, summary.FilesModified)
	fmt.Fprintf(l.opts.Console, "%s %d replacements\n", made, summary.TotalReplacements)

	if l.opts.Verbose && len(summary.ModifiedFiles) > 0 {
		fmt.Fprintf(l.opts.Console, "\nModified files:\n")
		for _, path := range summary.ModifiedFiles {
			fmt.Fprintf(l.opts.Console, "  - %s\n", path)
		}
	}

	if len(summary.Errors) > 0 {
		fmt.Fprintf(l.opts.Console, "\nErrors:\n")
		for _, fileErr := range summary.Errors {
			fmt.Fprintf(l.opts.Console, "  - %s: %s\n",
				fileErr.Path, color.New(color.FgRed).Sprint(fileErr.Message))
		}
	}

	l.zlog.Info().
		Int("processed", summary.FilesProcessed).
		Int("modified", summary.FilesModified).
		Int("replacements", summary.TotalReplacements).
		Int("errors", len(summary.Errors)).
		Msg("run complete")
}

// printFileLine writes one aligned, colored file entry.
func (l *Logger) printFileLine(symbol rune, symbolColor color.Attribute, path, detail string) {
	fmt.Fprintf(l.opts.Console, "%*s%s %-*s %s\n",
		fileIndent, "",
		color.New(symbolColor).Sprint(string(symbol)),
		nameWidth, path,
		color.New(color.Faint).Sprint(detail))
}

// printDiff renders an inline character diff of the transformation.
func (l *Logger) printDiff(before, after string) {
	diffs := l.dmp.DiffMain(before, after, false)
	diffs = l.dmp.DiffCleanupSemantic(diffs)
	fmt.Fprintln(l.opts.Console, l.dmp.DiffPrettyText(diffs))
}
