// Package testutil provides test fixtures for CLI and engine testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestProject creates a temporary project with a small asset tree:
// two query assets in raw, a function asset and a query asset in analytics.
// It returns the project directory; the assets root is <dir>/assets.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	assets := filepath.Join(tmpDir, "assets")

	WriteAsset(t, filepath.Join(assets, "raw", "numbers.sql"), `-- asset.name = numbers
-- asset.schema = raw
select * from (values (1), (2), (3)) as t(n)
`)
	WriteAsset(t, filepath.Join(assets, "raw", "labels.py"), `# asset.name = labels
# asset.schema = raw

def labels():
    return {"id": [1, 2], "label": ["low", "high"]}
`)
	WriteAsset(t, filepath.Join(assets, "analytics", "doubled.sql"), `-- asset.name = doubled
-- asset.schema = analytics
-- asset.depends = raw.numbers
select n * 2 as n from raw.numbers
`)

	return tmpDir
}

// WriteAsset writes an asset file, creating parent directories as needed.
func WriteAsset(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
