// Package discover selects candidate files beneath a root directory.
// Ignored directories are pruned during the walk, so their subtrees are
// never visited regardless of any file-level filters.
package discover

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
	"gitlab.com/tozd/go/errors"
)

// 🗂️ DefaultIgnoreDirs are directory names never descended into unless
// the caller overrides them.
var DefaultIgnoreDirs = []string{
	".git",
	".svn",
	".hg",
	"__pycache__",
	".pytest_cache",
	"node_modules",
	".venv",
	"venv",
	"build",
	"dist",
	".eggs",
}

// 🔍 Directory discovers and filters files beneath a root path.
type Directory struct {
	// Path is the root directory to search in
	Path string
	// IgnoreDirs lists directory names to skip entirely; nil means
	// DefaultIgnoreDirs, an empty non-nil slice means skip nothing
	IgnoreDirs []string
	// IgnoreFiles lists file paths to skip
	IgnoreFiles []string
	// IgnoreExtensions lists extensions (with leading dot) to skip
	IgnoreExtensions []string
	// IncludeExtensions, when set, selects only these extensions
	IncludeExtensions []string
	// IgnoreGlobs lists doublestar patterns matched against
	// slash-separated root-relative paths
	IgnoreGlobs []string
	// UseGitignore also honors .gitignore rules found at the root
	UseGitignore bool
}

// 🏃 SelectedFiles walks the tree and returns every file that passes the
// filters, in lexical traversal order.
func (d *Directory) SelectedFiles(ctx context.Context) ([]string, error) {
	root, err := filepath.Abs(d.Path)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}

	ignoreDirs := d.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}
	dirSet := make(map[string]struct{}, len(ignoreDirs))
	for _, name := range ignoreDirs {
		dirSet[name] = struct{}{}
	}

	fileSet := make(map[string]struct{}, len(d.IgnoreFiles))
	for _, f := range d.IgnoreFiles {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		fileSet[abs] = struct{}{}
	}

	var gitignoreRules *ignore.GitIgnore
	if d.UseGitignore {
		gitignoreRules = loadGitignore(root)
	}

	var selected []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := dirSet[entry.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		ok, err := d.selects(root, path, fileSet, gitignoreRules)
		if err != nil {
			return err
		}
		if ok {
			selected = append(selected, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Errorf("walking %s: %w", root, walkErr)
	}

	zerolog.Ctx(ctx).Debug().
		Str("root", root).
		Int("selected", len(selected)).
		Msg("file discovery complete")
	return selected, nil
}

// 🗃️ OtherFiles returns every file under the root that SelectedFiles
// filters out, including files inside ignored directories.
func (d *Directory) OtherFiles(ctx context.Context) ([]string, error) {
	selected, err := d.SelectedFiles(ctx)
	if err != nil {
		return nil, err
	}
	selectedSet := make(map[string]struct{}, len(selected))
	for _, path := range selected {
		selectedSet[path] = struct{}{}
	}

	root, err := filepath.Abs(d.Path)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}

	var others []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := selectedSet[path]; !ok {
			others = append(others, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Errorf("walking %s: %w", root, walkErr)
	}
	return others, nil
}

// selects applies the file-level filters to one regular file.
func (d *Directory) selects(root, path string, ignoreFiles map[string]struct{}, gitignoreRules *ignore.GitIgnore) (bool, error) {
	if _, skip := ignoreFiles[path]; skip {
		return false, nil
	}

	ext := filepath.Ext(path)
	for _, e := range d.IgnoreExtensions {
		if ext == e {
			return false, nil
		}
	}
	if len(d.IncludeExtensions) > 0 {
		found := false
		for _, e := range d.IncludeExtensions {
			if ext == e {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false, errors.Errorf("relativizing %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range d.IgnoreGlobs {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, errors.Errorf("bad ignore pattern %q: %w", pattern, err)
		}
		if matched {
			return false, nil
		}
	}

	if gitignoreRules != nil && gitignoreRules.MatchesPath(rel) {
		return false, nil
	}
	return true, nil
}

// loadGitignore reads the root .gitignore, if present, into a matcher.
func loadGitignore(root string) *ignore.GitIgnore {
	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if scanner.Err() != nil || len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
