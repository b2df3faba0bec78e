// Package discover walks a project root and yields the files eligible for analysis.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/codehealth/internal/contract"
)

// Options control which files are eligible.
type Options struct {
	Extensions []string // compared case-insensitively, with a leading dot
	Excludes   []string // doublestar patterns matched against the relative path
}

// OptionsFromConfig extracts the discovery options from a config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{Extensions: cfg.Extensions, Excludes: cfg.Excludes}
}

// SkipsDir reports whether discovery prunes the directory at rel.
// Hidden directories are always pruned.
func (o Options) SkipsDir(rel string) bool {
	return strings.HasPrefix(path.Base(rel), ".") || contract.ShouldIgnore(rel, o.Excludes)
}

// Accepts reports whether the file at rel has an eligible extension and is not excluded.
// The directories above rel are not checked.
func (o Options) Accepts(rel string) bool {
	ext := strings.ToLower(path.Ext(rel))
	for _, want := range o.Extensions {
		want = strings.ToLower(want)
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return !contract.ShouldIgnore(rel, o.Excludes)
		}
	}
	return false
}

// Walk streams the relative, forward-slash path of every eligible file under root to emit.
// Paths arrive in walk order. Unreadable subdirectories are skipped and returned as warnings.
// Walk stops early when ctx is done or emit returns an error.
func Walk(ctx context.Context, root string, opts Options, emit func(rel string) error) ([]error, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &contract.NotFoundError{Path: root}
		}
		return nil, fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	extensions := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}

	var warnings []error
	found := 0
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			if rel == "." {
				return fmt.Errorf("cannot read %s: %w", root, walkErr)
			}
			warnings = append(warnings, &contract.UnreadableFileWarning{Path: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if opts.SkipsDir(rel) {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}
		if contract.ShouldIgnore(rel, opts.Excludes) {
			return nil
		}

		found++
		return emit(rel)
	})
	if err != nil {
		return warnings, err
	}
	if found == 0 {
		return warnings, &contract.EmptyProjectError{Root: root}
	}
	return warnings, nil
}

// Files returns every eligible file under root, sorted by relative path.
func Files(ctx context.Context, root string, opts Options) ([]string, []error, error) {
	var files []string
	warnings, err := Walk(ctx, root, opts, func(rel string) error {
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}
	sort.Strings(files)
	return files, warnings, nil
}
