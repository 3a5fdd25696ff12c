package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directory names recognized as an assets root, in lookup order.
var rootNames = []string{"assets", "datasets"}

// DiscoveryError reports a failed discovery walk or a missing assets root.
type DiscoveryError struct {
	Path  string
	Cause error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery failed at %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("no assets directory found from %s", e.Path)
}

func (e *DiscoveryError) Unwrap() error { return e.Cause }

// FindRoot locates the nearest ancestor-or-self directory containing an
// assets directory, starting from startDir and walking toward the
// filesystem root. It returns the assets directory path.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", &DiscoveryError{Path: startDir, Cause: err}
	}

	for {
		for _, name := range rootNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &DiscoveryError{Path: startDir}
		}
		dir = parent
	}
}

// Discover walks the assets root and parses every eligible file into an
// Asset. Eligible files have a .sql, .py, or .sh suffix and a basename not
// starting with underscore; everything else is silently skipped.
//
// Discovery is all-or-nothing: the first file that fails to parse aborts
// the walk so the dependency graph is never built from a partial set. The
// result is ordered lexicographically by path for reproducible downstream
// behavior.
func Discover(root string) ([]*Asset, error) {
	paths, err := assetFiles(root)
	if err != nil {
		return nil, err
	}

	assets := make([]*Asset, 0, len(paths))
	for _, path := range paths {
		a, err := FromFile(path)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// assetFiles returns the sorted list of eligible asset files under root.
func assetFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return &DiscoveryError{Path: path, Cause: walkErr}
		}
		name := info.Name()
		if info.IsDir() {
			if strings.HasPrefix(name, "_") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, "_") {
			return nil
		}
		if _, ok := KindForPath(path); !ok {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
