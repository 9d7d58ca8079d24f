package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/stringle-dev/stringle/pkg/replace"
)

func newTestLogger(opts Options) (*Logger, *bytes.Buffer) {
	color.NoColor = true
	buf := &bytes.Buffer{}
	opts.Console = buf
	opts.Level = zerolog.Disabled
	return New(opts), buf
}

func TestLogger_FileProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("modified_file_gets_a_line", func(t *testing.T) {
		logger, buf := newTestLogger(Options{})
		logger.FileProcessed(ctx, replace.FileOutcome{Path: "a.txt", Replacements: 3, Modified: true})

		assert.Contains(t, buf.String(), "a.txt")
		assert.Contains(t, buf.String(), "3 replacement(s)")
	})

	t.Run("error_file_gets_a_line", func(t *testing.T) {
		logger, buf := newTestLogger(Options{})
		logger.FileProcessed(ctx, replace.FileOutcome{Path: "bad.txt", Err: "reading file: boom"})

		assert.Contains(t, buf.String(), "bad.txt")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("unchanged_file_silent_by_default", func(t *testing.T) {
		logger, buf := newTestLogger(Options{})
		logger.FileProcessed(ctx, replace.FileOutcome{Path: "quiet.txt"})

		assert.Empty(t, buf.String())
	})

	t.Run("unchanged_file_printed_when_verbose", func(t *testing.T) {
		logger, buf := newTestLogger(Options{Verbose: true})
		logger.FileProcessed(ctx, replace.FileOutcome{Path: "quiet.txt"})

		assert.Contains(t, buf.String(), "quiet.txt")
		assert.Contains(t, buf.String(), "unchanged")
	})

	t.Run("diff_rendered_when_enabled", func(t *testing.T) {
		logger, buf := newTestLogger(Options{ShowDiff: true})
		logger.FileProcessed(ctx, replace.FileOutcome{
			Path:         "a.txt",
			Replacements: 1,
			Modified:     true,
			Before:       "hello world",
			After:        "goodbye world",
		})

		assert.Contains(t, buf.String(), "world")
	})
}

func TestLogger_RunCompleted(t *testing.T) {
	ctx := context.Background()
	summary := replace.NewRunSummary()
	summary.Add(replace.FileOutcome{Path: "a.txt", Replacements: 2, Modified: true})
	summary.Add(replace.FileOutcome{Path: "b.txt"})
	summary.Add(replace.FileOutcome{Path: "c.txt", Err: "unreadable"})

	t.Run("standard_wording", func(t *testing.T) {
		logger, buf := newTestLogger(Options{})
		logger.RunCompleted(ctx, summary)

		out := buf.String()
		assert.Contains(t, out, "Processed 3 files")
		assert.Contains(t, out, "Modified 1 files")
		assert.Contains(t, out, "Made 2 replacements")
		assert.Contains(t, out, "c.txt: unreadable")
		assert.NotContains(t, out, "Modified files:")
	})

	t.Run("dry_run_wording", func(t *testing.T) {
		logger, buf := newTestLogger(Options{DryRun: true})
		logger.RunCompleted(ctx, summary)

		out := buf.String()
		assert.Contains(t, out, "Would process 3 files")
		assert.Contains(t, out, "Would modify 1 files")
		assert.Contains(t, out, "Would make 2 replacements")
	})

	t.Run("verbose_lists_modified_files", func(t *testing.T) {
		logger, buf := newTestLogger(Options{Verbose: true})
		logger.RunCompleted(ctx, summary)

		out := buf.String()
		assert.Contains(t, out, "Modified files:")
		assert.Contains(t, out, "  - a.txt")
	})
}
