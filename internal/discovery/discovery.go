// Package discovery lists candidate files under a root directory.
package discovery

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
)

// Filter selects files. Include and Exclude are substrings tested against
// the full path; Pattern is a regular expression anchored at the start of
// the base name.
type Filter struct {
	Include   string
	Exclude   string
	Pattern   string
	Recursive bool
}

// List returns the files under root accepted by f, sorted lexically. An
// unreachable root is an ErrNotFound error; a malformed pattern is an
// ErrConfiguration error.
func List(root string, f Filter, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return nil, failure.Wrap(failure.ErrNotFound, "discover", "list files", "folder path unreachable: "+root, err)
	}

	var nameRE *regexp.Regexp
	if f.Pattern != "" {
		nameRE, err = regexp.Compile(`^(?:` + f.Pattern + `)`)
		if err != nil {
			return nil, failure.Wrap(failure.ErrConfiguration, "discover", "compile pattern", f.Pattern, err)
		}
	}

	candidates, err := walk(root, f.Recursive)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNotFound, "discover", "list files", root, err)
	}
	if len(candidates) == 0 {
		logging.WarnWithContext(logger, "no files found", "discover_empty",
			logging.String("root", root),
			logging.String(logging.FieldImpact, "nothing to process from this root"),
		)
	}

	files := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if f.Include != "" && !strings.Contains(path, f.Include) {
			continue
		}
		if f.Exclude != "" && strings.Contains(path, f.Exclude) {
			continue
		}
		if nameRE != nil && !nameRE.MatchString(filepath.Base(path)) {
			logger.Debug("file rejected by name pattern", logging.String("file", filepath.Base(path)))
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func walk(root string, recursive bool) ([]string, error) {
	var files []string
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				files = append(files, filepath.Join(root, entry.Name()))
			}
		}
		return files, nil
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
