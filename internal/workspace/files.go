package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Find returns the files under root matching any include pattern and no
// exclude pattern. Paths are slash-separated, relative to root, and sorted.
func Find(root string, include, exclude []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			excluded, err := matchesAny(exclude, m)
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	slices.Sort(files)
	return files, nil
}

// Expand resolves command-line arguments: directories are searched with the
// patterns, files are taken as given
func Expand(args, include, exclude []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		found, err := Find(arg, include, exclude)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			out = append(out, filepath.Join(arg, filepath.FromSlash(f)))
		}
	}
	return out, nil
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, pattern := range patterns {
		// doublestar.Match expects forward slashes, which fs.FS paths always use
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
