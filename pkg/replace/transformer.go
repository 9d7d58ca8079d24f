// Package replace drives rule application across files and aggregates
// per-file outcomes into a run summary.
package replace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/stringle-dev/stringle/pkg/rules"
)

// 📄 FileOutcome reports the result of processing one file. An outcome
// with Err set never contributes to Modified or Replacements.
type FileOutcome struct {
	Path         string `json:"path"`
	Replacements int    `json:"replacements"`
	Modified     bool   `json:"modified"`
	Err          string `json:"error,omitempty"`

	// Before and After carry the file content for diff rendering.
	// Populated only when the transformer captures content.
	Before string `json:"-"`
	After  string `json:"-"`
}

// 🔧 Transformer processes one file at a time against a rule set. It does
// no selection logic of its own; paths are trusted to come from discovery.
type Transformer struct {
	// DryRun computes and reports outcomes without writing anything
	DryRun bool
	// CaptureContent keeps Before/After on outcomes for diff rendering
	CaptureContent bool
}

// 🏃 Process reads path, applies every rule in effective order, and
// persists the result unless nothing changed or DryRun is set. Read,
// decode, and write failures are reported on the outcome, not raised;
// a failed file is skipped, never fatal to the run.
func (t *Transformer) Process(ctx context.Context, path string, rs *rules.RuleSet) FileOutcome {
	logger := zerolog.Ctx(ctx)
	outcome := FileOutcome{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		outcome.Err = errors.Errorf("reading file: %w", err).Error()
		return outcome
	}
	if !isText(raw) {
		outcome.Err = "content is not valid UTF-8 text"
		return outcome
	}

	original := string(raw)
	result, count := rs.Apply(original)

	outcome.Replacements = count
	// Modified iff the final content differs from the original. A rule
	// that replaces a pattern with itself still reports its count but
	// does not mark the file modified.
	outcome.Modified = result != original
	if t.CaptureContent {
		outcome.Before = original
		outcome.After = result
	}

	logger.Debug().
		Str("path", path).
		Int("replacements", count).
		Bool("modified", outcome.Modified).
		Msg("processed file")

	if !outcome.Modified || t.DryRun {
		return outcome
	}

	if err := writeFileAtomic(path, []byte(result)); err != nil {
		// The in-memory computation happened but nothing was persisted.
		outcome.Err = errors.Errorf("writing file: %w", err).Error()
		outcome.Modified = false
		return outcome
	}
	return outcome
}

// isText reports whether raw is content this tool can safely rewrite:
// valid UTF-8 with no NUL bytes.
func isText(raw []byte) bool {
	return utf8.Valid(raw) && bytes.IndexByte(raw, 0) < 0
}

// writeFileAtomic replaces path's content in a single rename, preserving
// the file mode, so an abandoned run never leaves a half-written file.
func writeFileAtomic(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("stat: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode()); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("replacing file: %w", err)
	}
	return nil
}
